// Package repository stores whole collections of records under single keys of a
// domain.Store. Every write reads the full collection, changes one element and writes the
// full collection back.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"anonchat/internal/domain"
	"anonchat/internal/observability"
)

// Consistency selects how a collection write is committed.
type Consistency int

const (
	// LastWriteWins writes unconditionally. Two writers whose read-modify-write cycles
	// overlap lose the earlier write.
	LastWriteWins Consistency = iota
	// CompareAndSwap commits only if the collection is still at the version that was read
	// and reruns the whole cycle on conflict.
	CompareAndSwap
)

// DefaultMaxRetries bounds CompareAndSwap reruns of one write.
const DefaultMaxRetries = 5

func (c Consistency) String() string {
	switch c {
	case CompareAndSwap:
		return "compare-and-swap"
	default:
		return "last-write-wins"
	}
}

// ParseConsistency parses the names produced by Consistency.String.
func ParseConsistency(s string) (Consistency, error) {
	switch s {
	case "", "last-write-wins":
		return LastWriteWins, nil
	case "compare-and-swap":
		return CompareAndSwap, nil
	default:
		return LastWriteWins, fmt.Errorf("unknown consistency mode %q", s)
	}
}

// Options configures repositories
type Options struct {
	Consistency Consistency
	MaxRetries  int
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Logger == nil {
		o.Logger = observability.Logger()
	}
	return o
}

// errUnchanged aborts a mutation without writing.
var errUnchanged = errors.New("collection unchanged")

type collection[T any] struct {
	store domain.Store
	key   string
	opts  Options
}

func newCollection[T any](store domain.Store, key string, opts Options) *collection[T] {
	return &collection[T]{store: store, key: key, opts: opts.withDefaults()}
}

// load returns the decoded collection and the version it was read at. A missing key is
// an empty collection.
func (c *collection[T]) load(ctx context.Context) ([]T, uint64, error) {
	start := time.Now()
	entry, err := c.store.Get(ctx, c.key)
	c.observe("get", start)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", c.key, err)
	}

	items := []T{}
	if len(entry.Value) > 0 {
		if err := json.Unmarshal(entry.Value, &items); err != nil {
			return nil, 0, fmt.Errorf("failed to decode %s: %w", c.key, err)
		}
		if items == nil {
			items = []T{}
		}
	}
	return items, entry.Version, nil
}

// mutate applies fn to the current collection and writes the result. fn may run more
// than once under CompareAndSwap and must not keep state between runs. Returning
// errUnchanged skips the write.
func (c *collection[T]) mutate(ctx context.Context, fn func(items []T) ([]T, error)) error {
	for attempt := 1; ; attempt++ {
		items, version, err := c.load(ctx)
		if err != nil {
			return err
		}

		updated, err := fn(items)
		if errors.Is(err, errUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}
		if updated == nil {
			updated = []T{}
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", c.key, err)
		}

		err = c.save(ctx, data, version)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}

		observability.StoreVersionConflicts.WithLabelValues(c.key).Inc()
		if attempt > c.opts.MaxRetries {
			return fmt.Errorf("failed to write %s after %d attempts: %w", c.key, attempt, err)
		}
		c.opts.Logger.Debug("collection changed since read, retrying",
			slog.String("collection", c.key),
			slog.Int("attempt", attempt))
	}
}

func (c *collection[T]) save(ctx context.Context, data []byte, version uint64) error {
	start := time.Now()

	var err error
	switch c.opts.Consistency {
	case CompareAndSwap:
		err = c.store.CompareAndSet(ctx, c.key, data, version)
		c.observe("compare_and_set", start)
		if errors.Is(err, domain.ErrVersionConflict) {
			return domain.ErrVersionConflict
		}
	default:
		// Any write that landed between load and this Set is overwritten.
		err = c.store.Set(ctx, c.key, data)
		c.observe("set", start)
	}

	if err != nil {
		return fmt.Errorf("failed to write %s: %w", c.key, err)
	}
	return nil
}

func (c *collection[T]) observe(operation string, start time.Time) {
	observability.StoreOperationDuration.WithLabelValues(operation, c.key).Observe(time.Since(start).Seconds())
}
