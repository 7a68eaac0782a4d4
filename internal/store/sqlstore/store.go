// Package sqlstore implements domain.Store on a single kv_store table reachable through
// database/sql (PostgreSQL or SQLite).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anonchat/internal/domain"
)

var _ domain.Store = (*Store)(nil)

const (
	getQuery = `
		SELECT value, version
		FROM kv_store
		WHERE key = $1
	`
	setQuery = `
		INSERT INTO kv_store (key, value, version)
		VALUES ($1, $2, 1)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, version = kv_store.version + 1
	`
	insertQuery = `
		INSERT INTO kv_store (key, value, version)
		VALUES ($1, $2, 1)
	`
	updateQuery = `
		UPDATE kv_store
		SET value = $1, version = version + 1
		WHERE key = $2 AND version = $3
	`
)

// Store implements domain.Store over a kv_store table
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New creates a store. Call EnsureSchema once before use on a fresh database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// EnsureSchema creates the kv_store table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return fmt.Errorf("failed to create kv_store schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (domain.Entry, error) {
	var entry domain.Entry
	var version int64
	err := s.db.QueryRowContext(ctx, s.dialect.Bind(getQuery), key).Scan(&entry.Value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, nil
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	entry.Version = uint64(version)
	return entry, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Bind(setQuery), key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// CompareAndSet inserts when version is 0 and updates conditionally otherwise.
func (s *Store) CompareAndSet(ctx context.Context, key string, value []byte, version uint64) error {
	if version == 0 {
		_, err := s.db.ExecContext(ctx, s.dialect.Bind(insertQuery), key, value)
		if s.dialect.IsUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", key, err)
		}
		return nil
	}

	result, err := s.db.ExecContext(ctx, s.dialect.Bind(updateQuery), value, key, int64(version))
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
