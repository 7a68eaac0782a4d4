package memory

import (
	"context"
	"sync"
	"testing"

	"anonchat/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Get(t *testing.T) {
	t.Run("missing_key_is_zero_entry", func(t *testing.T) {
		entry, err := New().Get(context.Background(), "nothing")
		require.NoError(t, err)
		assert.False(t, entry.Exists())
		assert.Nil(t, entry.Value)
	})

	t.Run("returns_copy_of_value", func(t *testing.T) {
		store := New()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "k", []byte("abc")))

		entry, err := store.Get(ctx, "k")
		require.NoError(t, err)
		entry.Value[0] = 'z'

		again, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again.Value)
	})

	t.Run("cancelled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New().Get(ctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStore_Set(t *testing.T) {
	t.Run("version_increases_on_every_write", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "k", []byte("1")))
		first, _ := store.Get(ctx, "k")
		require.NoError(t, store.Set(ctx, "k", []byte("2")))
		second, _ := store.Get(ctx, "k")

		assert.Equal(t, uint64(1), first.Version)
		assert.Equal(t, uint64(2), second.Version)
		assert.Equal(t, []byte("2"), second.Value)
	})
}

func TestStore_CompareAndSet(t *testing.T) {
	t.Run("creates_absent_key_at_version_zero", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		require.NoError(t, store.CompareAndSet(ctx, "k", []byte("v"), 0))
		entry, _ := store.Get(ctx, "k")
		assert.Equal(t, []byte("v"), entry.Value)
	})

	t.Run("rejects_when_key_exists_at_version_zero", func(t *testing.T) {
		store := New()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "k", []byte("v")))

		err := store.CompareAndSet(ctx, "k", []byte("w"), 0)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})

	t.Run("rejects_stale_version", func(t *testing.T) {
		store := New()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "k", []byte("v1")))
		stale, _ := store.Get(ctx, "k")
		require.NoError(t, store.Set(ctx, "k", []byte("v2")))

		err := store.CompareAndSet(ctx, "k", []byte("v3"), stale.Version)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		entry, _ := store.Get(ctx, "k")
		assert.Equal(t, []byte("v2"), entry.Value)
	})

	t.Run("only_one_concurrent_writer_wins", func(t *testing.T) {
		store := New()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "k", []byte("base")))
		entry, _ := store.Get(ctx, "k")

		var wg sync.WaitGroup
		results := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- store.CompareAndSet(ctx, "k", []byte("next"), entry.Version)
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, domain.ErrVersionConflict)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}
