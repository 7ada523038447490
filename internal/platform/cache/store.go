package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	portsrepo "github.com/holdwatch/valuation_backend/internal/core/ports/repositories"
	"github.com/holdwatch/valuation_backend/internal/models"
	"golang.org/x/sync/singleflight"
)

// Producer obtains a fresh payload from upstream when the cache cannot serve.
type Producer func(ctx context.Context) (json.RawMessage, error)

// Store is the TTL cache in front of every upstream market query. It is the
// only shared mutable resource across concurrent refreshes; its single-flight
// guarantee is the sole concurrency-control primitive the pipeline needs.
type Store struct {
	repo  portsrepo.CacheRepository
	group singleflight.Group
	now   func() time.Time
}

func NewStore(repo portsrepo.CacheRepository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// GetOrFetch returns the cached payload for key when the entry is younger
// than ttl, otherwise invokes producer exactly once, stores the result
// wholesale, and returns it. Concurrent callers for the same key share a
// single in-flight producer invocation and its result. A failed producer
// surfaces as ErrUpstreamFetch and leaves any existing entry untouched; there
// is no negative caching.
func (s *Store) GetOrFetch(ctx context.Context, key string, ttl time.Duration, producer Producer) (json.RawMessage, error) {
	payload, err, _ := s.group.Do(key, func() (interface{}, error) {
		entry, err := s.repo.GetEntry(ctx, key)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if entry != nil && s.now().Sub(entry.FetchedAt) <= ttl {
			return entry.Payload, nil
		}

		fresh, err := producer(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %v", apperrors.ErrUpstreamFetch, key, err)
		}
		put := models.CacheEntry{Key: key, Payload: fresh, FetchedAt: s.now().UTC()}
		if err := s.repo.PutEntry(ctx, put); err != nil {
			return nil, fmt.Errorf("%w: storing cache entry %s: %v", apperrors.ErrPersistence, key, err)
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return payload.(json.RawMessage), nil
}

// GetOrFetchJSON runs GetOrFetch with JSON (un)marshalling of a typed value.
// produce returns the value to cache; the decoded cached value lands in dest.
func GetOrFetchJSON[T any](ctx context.Context, s *Store, key string, ttl time.Duration, produce func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	payload, err := s.GetOrFetch(ctx, key, ttl, func(ctx context.Context) (json.RawMessage, error) {
		v, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return zero, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return out, nil
}
