package fingerprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one cached search result. Entries are written once per fresh
// computation and only ever replaced wholesale.
type Entry struct {
	Predicted []string `json:"predicted"`
	ElapsedMs int64    `json:"elapsed_ms"`
	Raw       string   `json:"raw,omitempty"`
}

// Store persists entries as one JSON file per key under a local directory.
type Store struct {
	dir string
}

// NewStore creates the cache directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("fingerprint: empty cache dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fingerprint: create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get returns the entry for key. A missing, unreadable, or corrupt entry is a
// miss, never an error.
func (s *Store) Get(key string) (*Entry, bool) {
	if s == nil || strings.TrimSpace(key) == "" {
		return nil, false
	}
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false
	}
	if e.Predicted == nil {
		e.Predicted = []string{}
	}
	return &e, true
}

// Put writes the entry for key, overwriting any stale entry.
func (s *Store) Put(key string, e *Entry) error {
	if s == nil {
		return errors.New("fingerprint: nil store")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("fingerprint: empty key")
	}
	if e == nil {
		return errors.New("fingerprint: nil entry")
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("fingerprint: marshal entry: %w", err)
	}
	if err := os.WriteFile(s.path(key), b, 0o644); err != nil {
		return fmt.Errorf("fingerprint: write entry: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
