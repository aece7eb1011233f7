package store

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// DefaultDir returns ~/.orarictl_cache.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".orarictl_cache"), nil
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// path maps a key to a file name; keys contain ':' and may contain '/'.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+".json")
}

// Load implements Store. Unreadable or corrupt files count as missing.
func (s *FileStore) Load(key string, v any) (time.Time, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return time.Time{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		return time.Time{}, false
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return time.Time{}, false
	}
	return e.SavedAt, true
}

// Save implements Store.
func (s *FileStore) Save(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	data, err := json.MarshalIndent(entry{Key: key, SavedAt: s.now(), Payload: payload}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a temp file and rename it into place.
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}

	return s.evict()
}

// evict removes the oldest snapshots beyond MaxEntries.
func (s *FileStore) evict() error {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list cache directory: %w", err)
	}

	type saved struct {
		path string
		at   time.Time
	}
	var all []saved
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		p := filepath.Join(s.dir, f.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			// Not ours or corrupt; the oldest possible timestamp evicts it first.
			all = append(all, saved{path: p})
			continue
		}
		all = append(all, saved{path: p, at: e.SavedAt})
	}
	if len(all) <= MaxEntries {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].at.Equal(all[j].at) {
			return all[i].at.Before(all[j].at)
		}
		return all[i].path < all[j].path
	})
	for _, old := range all[:len(all)-MaxEntries] {
		if err := os.Remove(old.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("evict snapshot: %w", err)
		}
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}
