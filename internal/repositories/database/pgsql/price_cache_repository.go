package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPriceCacheRepository backs the cache store with the price_cache table.
type PgxPriceCacheRepository struct {
	BaseRepository
}

// NewPriceCacheRepository creates a new PgxPriceCacheRepository.
func NewPriceCacheRepository(db *pgxpool.Pool) *PgxPriceCacheRepository {
	return &PgxPriceCacheRepository{BaseRepository: BaseRepository{Pool: db}}
}

// GetEntry retrieves a cache entry by key, apperrors.ErrNotFound on a miss.
func (r *PgxPriceCacheRepository) GetEntry(ctx context.Context, key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := r.Pool.QueryRow(ctx,
		`SELECT key, payload, fetched_at FROM price_cache WHERE key = $1`,
		key,
	).Scan(&entry.Key, &entry.Payload, &entry.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: cache entry %s", apperrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("error reading cache entry: %w", err)
	}
	return &entry, nil
}

// PutEntry creates or replaces the entry wholesale.
func (r *PgxPriceCacheRepository) PutEntry(ctx context.Context, entry models.CacheEntry) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO price_cache (key, payload, fetched_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at`,
		entry.Key, entry.Payload, entry.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: writing cache entry %s: %v", apperrors.ErrPersistence, entry.Key, err)
	}
	return nil
}
