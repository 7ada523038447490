package rediscache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *CacheRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepositoryWithClient(client)
}

func TestCacheRepository_MissReturnsNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetEntry(context.Background(), "fx:USDJPY")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCacheRepository_PutThenGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fetchedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := models.CacheEntry{
		Key:       "stock:NASDAQ:AAPL:google",
		Payload:   json.RawMessage(`{"price":"191.45","currency":"USD"}`),
		FetchedAt: fetchedAt,
	}
	require.NoError(t, repo.PutEntry(ctx, entry))

	got, err := repo.GetEntry(ctx, entry.Key)
	require.NoError(t, err)
	assert.Equal(t, entry.Key, got.Key)
	assert.JSONEq(t, string(entry.Payload), string(got.Payload))
	assert.True(t, fetchedAt.Equal(got.FetchedAt))
}

func TestCacheRepository_PutOverwritesExisting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := models.CacheEntry{
		Key:       "fx:USDJPY",
		Payload:   json.RawMessage(`{"rate":"149.855"}`),
		FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.PutEntry(ctx, first))

	second := models.CacheEntry{
		Key:       "fx:USDJPY",
		Payload:   json.RawMessage(`{"rate":"150.120"}`),
		FetchedAt: time.Date(2026, 3, 1, 12, 10, 0, 0, time.UTC),
	}
	require.NoError(t, repo.PutEntry(ctx, second))

	got, err := repo.GetEntry(ctx, "fx:USDJPY")
	require.NoError(t, err)
	assert.JSONEq(t, string(second.Payload), string(got.Payload))
	assert.True(t, second.FetchedAt.Equal(got.FetchedAt))
}
