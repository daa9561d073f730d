package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"facelink/internal/domain/entity"
)

func TestMemoryOutcomeCache_GetMissingReturnsNil(t *testing.T) {
	cache := NewMemoryOutcomeCache()

	result, err := cache.Get(context.Background(), "unknown")
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestMemoryOutcomeCache_PutThenGet(t *testing.T) {
	cache := NewMemoryOutcomeCache()
	ctx := context.Background()

	outcome := entity.NewMatchResult("f-1", "cam-1", "alice", 0.9)
	require.NoError(t, cache.Put(ctx, outcome))

	got, err := cache.Get(ctx, "f-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, entity.OutcomeMatch, got.Outcome)
	require.Equal(t, "alice", got.Identity)
}

func TestMemoryOutcomeCache_FirstWriteWins(t *testing.T) {
	cache := NewMemoryOutcomeCache()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, entity.NewMatchResult("f-1", "cam-1", "alice", 0.9)))
	require.NoError(t, cache.Put(ctx, entity.NewNoMatchResult("f-1", "cam-1", 0.1)))

	got, err := cache.Get(ctx, "f-1")
	require.NoError(t, err)
	require.Equal(t, entity.OutcomeMatch, got.Outcome)
	require.Equal(t, 1, cache.Len())
}
