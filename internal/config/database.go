package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"anonchat/internal/domain"
	"anonchat/internal/store/badgerstore"
	"anonchat/internal/store/memory"
	"anonchat/internal/store/sqlstore"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// NewPostgresConnection creates a new PostgreSQL database connection
func NewPostgresConnection(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewSQLiteConnection opens a SQLite database file in WAL mode. SQLite allows a single
// writer, so the pool is limited to one connection.
func NewSQLiteConnection(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// OpenStore opens the persistent store selected by cfg. The returned close function
// releases the backend and must be called on shutdown.
func OpenStore(ctx context.Context, cfg *Config) (domain.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case BackendMemory:
		return memory.New(), noop, nil

	case BackendBadger:
		db, err := badgerstore.Open(cfg.BadgerPath)
		if err != nil {
			return nil, noop, err
		}
		return badgerstore.New(db), db.Close, nil

	case BackendSQLite:
		db, err := NewSQLiteConnection(cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return openSQLStore(ctx, db, sqlstore.SQLite)

	case BackendPostgres:
		db, err := NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return openSQLStore(ctx, db, sqlstore.Postgres)
	}

	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func openSQLStore(ctx context.Context, db *sql.DB, dialect sqlstore.Dialect) (domain.Store, func() error, error) {
	store := sqlstore.New(db, dialect)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, func() error { return nil }, err
	}
	return store, db.Close, nil
}
