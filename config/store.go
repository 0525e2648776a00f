package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aschepis/backscratcher/diary/blobstore"
	"github.com/aschepis/backscratcher/diary/migrations"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// OpenStore opens the configured backend. The returned close function
// releases any database handle and is never nil.
func OpenStore(cfg *Config, logger zerolog.Logger) (blobstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case BackendMemory:
		return blobstore.NewMemoryStore(), noop, nil

	case BackendDiskv:
		if err := os.MkdirAll(cfg.Store.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return blobstore.NewDiskvStore(cfg.Store.Path, logger), noop, nil

	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		db, err := sql.Open("sqlite3", cfg.Store.Path+"?_busy_timeout=5000")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := migrations.RunMigrations(db, logger); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return blobstore.NewSQLiteStore(db, logger), db.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
