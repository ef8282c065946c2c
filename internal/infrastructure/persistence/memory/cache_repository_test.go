package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

func TestCacheRepository_SetGet(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(8, time.Minute)

	value := []byte("VALID")
	require.NoError(t, repo.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("VALID"), got)

	got[0] = 'Y'
	again, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("VALID"), again, "callers must not alias stored bytes")
}

func TestCacheRepository_Miss(t *testing.T) {
	repo := NewCacheRepository(0, 0)

	_, err := repo.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	ok, err := repo.Exists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRepository_PerEntryTTL(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(8, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, repo.Set(ctx, "long", []byte("b"), 0))

	now = now.Add(2 * time.Second)

	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	ok, _ := repo.Exists(ctx, "long")
	assert.True(t, ok)
}

func TestCacheRepository_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(2, time.Minute)

	require.NoError(t, repo.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, repo.Set(ctx, "b", []byte("2"), 0))
	_, _ = repo.Get(ctx, "a")
	require.NoError(t, repo.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, repo.Len())
	_, err := repo.Get(ctx, "b")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	_, err = repo.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestCacheRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(4, time.Minute)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, repo.Delete(ctx, "k"))

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}
