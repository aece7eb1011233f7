package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore keeps snapshots in a single table of JSON blobs.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		saved_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(key string, v any) (time.Time, bool) {
	var (
		savedAt int64
		payload []byte
	)
	err := s.db.QueryRow(`SELECT saved_at, payload FROM snapshots WHERE key = ?`, key).Scan(&savedAt, &payload)
	if err != nil {
		return time.Time{}, false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, savedAt), true
}

// Save implements Store.
func (s *SQLiteStore) Save(key string, v any) (retErr error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(`INSERT INTO snapshots (key, saved_at, payload) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET saved_at = excluded.saved_at, payload = excluded.payload`,
		key, s.now().UnixNano(), payload); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", key, err)
	}
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE key NOT IN (
		SELECT key FROM snapshots ORDER BY saved_at DESC, key DESC LIMIT ?
	)`, MaxEntries); err != nil {
		return fmt.Errorf("evict snapshots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
