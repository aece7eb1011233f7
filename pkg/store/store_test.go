package store

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

type snapshot struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func backends(t *testing.T) map[string]func(clock *fakeClock) Store {
	return map[string]func(clock *fakeClock) Store{
		"file": func(clock *fakeClock) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "cache"))
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			s.now = clock.now
			return s
		},
		"sqlite": func(clock *fakeClock) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "snapshots.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			s.now = clock.now
			return s
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
			s := open(clock)
			defer s.Close()

			var got snapshot
			if _, ok := s.Load("courses", &got); ok {
				t.Fatalf("expected a miss on an empty store")
			}

			want := snapshot{Name: "Informatica", Items: []string{"a", "b"}}
			if err := s.Save("courses", want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			savedAt, ok := s.Load("courses", &got)
			if !ok {
				t.Fatalf("expected a hit after Save")
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %+v, want %+v", got, want)
			}
			if !savedAt.Equal(time.Date(2025, 3, 10, 8, 1, 0, 0, time.UTC)) {
				t.Errorf("unexpected saved_at %v", savedAt)
			}

			// Overwrite keeps a single entry with the newer timestamp.
			if err := s.Save("courses", snapshot{Name: "Fisica"}); err != nil {
				t.Fatalf("Save: %v", err)
			}
			savedAt, _ = s.Load("courses", &got)
			if got.Name != "Fisica" || !savedAt.Equal(time.Date(2025, 3, 10, 8, 2, 0, 0, time.UTC)) {
				t.Errorf("overwrite not visible: %+v at %v", got, savedAt)
			}
		})
	}
}

func TestStoreKeysWithSeparators(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(&fakeClock{})
			defer s.Close()

			keys := []string{"rooms:all:2025-03-10", "rooms/all/2025-03-10", "lessons:GP004:2:2024:2025-03-10"}
			for i, k := range keys {
				if err := s.Save(k, snapshot{Name: fmt.Sprint(i)}); err != nil {
					t.Fatalf("Save(%q): %v", k, err)
				}
			}
			for i, k := range keys {
				var got snapshot
				if _, ok := s.Load(k, &got); !ok || got.Name != fmt.Sprint(i) {
					t.Errorf("Load(%q) = %+v, %v", k, got, ok)
				}
			}
		})
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(&fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
			defer s.Close()

			for i := 0; i < MaxEntries+5; i++ {
				if err := s.Save(fmt.Sprintf("key-%03d", i), i); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}

			var v int
			for i := 0; i < 5; i++ {
				if _, ok := s.Load(fmt.Sprintf("key-%03d", i), &v); ok {
					t.Errorf("expected key-%03d to be evicted", i)
				}
			}
			for i := 5; i < MaxEntries+5; i++ {
				if _, ok := s.Load(fmt.Sprintf("key-%03d", i), &v); !ok || v != i {
					t.Errorf("expected key-%03d to survive, got %d, %v", i, v, ok)
				}
			}
		})
	}
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := os.WriteFile(s.path("buildings"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []string
	if _, ok := s.Load("buildings", &got); ok {
		t.Errorf("expected a corrupt snapshot to be ignored")
	}

	if err := s.Save("buildings", []string{"Borgo Roma"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := s.Load("buildings", &got); !ok || len(got) != 1 {
		t.Errorf("expected Save to replace the corrupt snapshot, got %v", got)
	}
}

func TestOpen(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("USERPROFILE", tempDir)

	fs, err := Open("file")
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	fs.Close()
	if _, err := os.Stat(filepath.Join(tempDir, ".orarictl_cache")); err != nil {
		t.Errorf("expected cache directory: %v", err)
	}

	db, err := Open("sqlite")
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	db.Close()
	if _, err := os.Stat(filepath.Join(tempDir, ".orarictl_cache", "snapshots.db")); err != nil {
		t.Errorf("expected sqlite database: %v", err)
	}

	if _, err := Open("redis"); err == nil {
		t.Errorf("expected unknown backend to fail")
	}
}
