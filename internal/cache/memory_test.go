package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/agoraforum/agora/internal/pkg/errors"
)

func TestMemoryStore_SetGetDel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(16)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", value)

	require.NoError(t, store.Del(ctx, "k"))
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestMemoryStore_ExpiredEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(16)

	require.NoError(t, store.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestMemoryStore_PurgeDropsOnlyExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(16)

	require.NoError(t, store.Set(ctx, "expired", "v", time.Millisecond))
	require.NoError(t, store.Set(ctx, "fresh", "v", time.Hour))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))
	time.Sleep(5 * time.Millisecond)

	require.Equal(t, 1, store.Purge(ctx))

	_, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	_, err = store.Get(ctx, "forever")
	require.NoError(t, err)
}
