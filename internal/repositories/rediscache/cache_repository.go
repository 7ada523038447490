package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// envelope is the stored wire form: the raw provider payload plus the
// fetch timestamp the store needs for freshness checks.
type envelope struct {
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// CacheRepository implements the cache port against Redis.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository connects to Redis and verifies the connection.
func NewCacheRepository(addr, password string, db int) (*CacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &CacheRepository{client: client}, nil
}

// NewCacheRepositoryWithClient wraps an existing client, used by tests.
func NewCacheRepositoryWithClient(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Close closes the Redis connection.
func (r *CacheRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// GetEntry retrieves a cache entry by key, apperrors.ErrNotFound on a miss.
func (r *CacheRepository) GetEntry(ctx context.Context, key string) (*models.CacheEntry, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: cache entry %s", apperrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("error reading cache entry: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("error decoding cache entry %s: %w", key, err)
	}
	return &models.CacheEntry{
		Key:       key,
		Payload:   env.Payload,
		FetchedAt: env.FetchedAt,
	}, nil
}

// PutEntry creates or replaces the entry wholesale. Entries carry their own
// timestamp, so no Redis-side TTL is set; staleness is decided by the store.
func (r *CacheRepository) PutEntry(ctx context.Context, entry models.CacheEntry) error {
	raw, err := json.Marshal(envelope{Payload: entry.Payload, FetchedAt: entry.FetchedAt})
	if err != nil {
		return fmt.Errorf("%w: encoding cache entry %s: %v", apperrors.ErrPersistence, entry.Key, err)
	}
	if err := r.client.Set(ctx, entry.Key, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: writing cache entry %s: %v", apperrors.ErrPersistence, entry.Key, err)
	}
	return nil
}
