package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smbevo/evolve/internal/api"
	dbstore "github.com/smbevo/evolve/internal/db"
)

// openStore selects the persistence backend. EVOLVE_SQLITE_PATH switches on
// the SQLite store and applies migrations on startup; without it the server
// keeps everything in memory, which suits local development and tests.
func openStore() (api.Store, func() error, error) {
	sqlitePath := os.Getenv("EVOLVE_SQLITE_PATH")
	if sqlitePath == "" {
		log.Printf("EVOLVE_SQLITE_PATH not set, using in-memory store")
		return api.NewMemoryStore(), nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(sqlitePath))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := dbstore.RunMigrations(sqliteDB, os.Getenv("EVOLVE_MIGRATIONS_DIR")); err != nil {
		_ = sqliteDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := dbstore.NewStore(sqliteDB)
	if err != nil {
		_ = sqliteDB.Close()
		return nil, nil, fmt.Errorf("init sqlite store: %w", err)
	}

	log.Printf("using sqlite store at %s", sqlitePath)
	return store, sqliteDB.Close, nil
}
