// Package store keeps the last successful portal responses on disk so the
// CLI and the server can fall back to them when the portal is unreachable.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// MaxEntries is how many snapshots a store retains; older ones are evicted.
const MaxEntries = 60

// Store persists JSON snapshots by key.
type Store interface {
	// Load decodes the snapshot saved under key into v and reports when it was
	// saved. ok is false when there is no usable snapshot.
	Load(key string, v any) (savedAt time.Time, ok bool)
	Save(key string, v any) error
	Close() error
}

// entry is the on-disk envelope of a FileStore snapshot.
type entry struct {
	Key     string          `json:"key"`
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// Open returns the store for a cache backend ("file" or "sqlite") rooted at
// DefaultDir.
func Open(backend string) (Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	switch backend {
	case "", "file":
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "sqlite":
		db, err := NewSQLiteStore(filepath.Join(dir, "snapshots.db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
