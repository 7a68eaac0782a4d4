//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package domain

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by CompareAndSet when the key changed since it was read.
var ErrVersionConflict = errors.New("store version conflict")

// Entry is a stored value with its version. A missing key is the zero Entry.
type Entry struct {
	Value   []byte
	Version uint64
}

// Exists reports whether the entry was read from a present key.
func (e Entry) Exists() bool {
	return e.Version != 0
}

// Store is the persistent key-value store holding whole collections. It has no partial
// updates and no transactions spanning more than one call.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	// Set writes unconditionally; the last writer wins.
	Set(ctx context.Context, key string, value []byte) error
	// CompareAndSet writes only if the key is still at version (0 = key must be absent),
	// otherwise it returns ErrVersionConflict.
	CompareAndSet(ctx context.Context, key string, value []byte, version uint64) error
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
