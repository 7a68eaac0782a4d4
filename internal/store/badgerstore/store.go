// Package badgerstore implements domain.Store on an embedded BadgerDB.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"anonchat/internal/domain"

	"github.com/dgraph-io/badger/v4"
)

var _ domain.Store = (*Store)(nil)

// keyPrefix namespaces collections so the database can be shared with other data.
const keyPrefix = "collection:"

// Store keeps each collection under "collection:{key}". Entry versions are Badger item
// versions, i.e. the commit timestamp of the last write.
type Store struct {
	db *badger.DB
}

// New wraps an open Badger database. The caller owns db and closes it.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a Badger database at path with quiet logging.
func Open(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return db, nil
}

func (s *Store) Get(ctx context.Context, key string) (domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Entry{}, err
	}

	var entry domain.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = read(txn, key)
		return err
	})
	if err != nil {
		return domain.Entry{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// CompareAndSet checks the version and writes in one Badger transaction. A concurrent
// commit on the same key makes Badger abort with ErrConflict, reported as a version
// conflict as well.
func (s *Store) CompareAndSet(ctx context.Context, key string, value []byte, version uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := read(txn, key)
		if err != nil {
			return err
		}
		if current.Version != version {
			return domain.ErrVersionConflict
		}
		return txn.Set(storeKey(key), value)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, badger.ErrConflict):
		return domain.ErrVersionConflict
	default:
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
}

// Ping fails once the database is closed.
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return ctx.Err()
}

func read(txn *badger.Txn, key string) (domain.Entry, error) {
	item, err := txn.Get(storeKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Entry{}, nil
	}
	if err != nil {
		return domain.Entry{}, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Entry{}, err
	}
	return domain.Entry{Value: value, Version: item.Version()}, nil
}

func storeKey(key string) []byte {
	return []byte(keyPrefix + key)
}
