package repositories

import (
	"context"

	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/holdwatch/valuation_backend/internal/models"
	"github.com/shopspring/decimal"
)

// HoldingRepository defines the read side of holdings plus the single write
// the refresh pipeline performs (caching the last-known native price).
type HoldingRepository interface {
	FindHoldingByID(ctx context.Context, holdingID string) (*domain.Holding, error)
	ListHoldings(ctx context.Context) ([]domain.Holding, error)
	UpdateLastMarketPrice(ctx context.Context, holdingID string, price decimal.Decimal) error
}

// ValuationRepository defines persistence for the append-only valuations log.
type ValuationRepository interface {
	// AppendValuation inserts a new row and returns its id. Existing rows are
	// never updated.
	AppendValuation(ctx context.Context, valuation domain.Valuation) (int64, error)
	// FindLatestValuation resolves to the row with the greatest (as_of, id)
	// pair, or apperrors.ErrNotFound when no valuation exists yet.
	FindLatestValuation(ctx context.Context, holdingID string) (*domain.Valuation, error)
	// ListValuations returns up to limit of the newest rows for a holding,
	// ordered newest first.
	ListValuations(ctx context.Context, holdingID string, limit int) ([]domain.Valuation, error)
}

// CacheRepository is the storage backend behind the cache store. It holds
// opaque payloads keyed by upstream query; TTL accounting happens above it.
type CacheRepository interface {
	// GetEntry returns apperrors.ErrNotFound on a miss.
	GetEntry(ctx context.Context, key string) (*models.CacheEntry, error)
	// PutEntry creates or overwrites the entry wholesale.
	PutEntry(ctx context.Context, entry models.CacheEntry) error
}

// RepositoryProvider bundles the repositories the service container needs.
type RepositoryProvider struct {
	HoldingRepo   HoldingRepository
	ValuationRepo ValuationRepository
	CacheRepo     CacheRepository
}
