package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/extract-eval/internal/config"
)

const DefaultSQLitePath = "data/extract-eval.db"

// Open builds a Store from config. Every supported storage type is backed by
// SQLite; the type only selects the DSN.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("store: missing config")
	}
	dsn, err := resolveDSN(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(dsn)
}

func resolveDSN(sc config.StorageConfig) (string, error) {
	switch strings.ToLower(strings.TrimSpace(sc.Type)) {
	case "", "sqlite":
		if path := strings.TrimSpace(sc.Path); path != "" {
			return path, nil
		}
		return DefaultSQLitePath, nil
	case "memory":
		return ":memory:", nil
	default:
		return "", fmt.Errorf("store: unsupported type %q", sc.Type)
	}
}
