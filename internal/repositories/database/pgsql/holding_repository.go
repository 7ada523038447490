package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/holdwatch/valuation_backend/internal/models"
	"github.com/holdwatch/valuation_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxHoldingRepository implements the ports.HoldingRepository interface using pgxpool.
type PgxHoldingRepository struct {
	BaseRepository
}

// NewHoldingRepository creates a new PgxHoldingRepository.
func NewHoldingRepository(db *pgxpool.Pool) *PgxHoldingRepository {
	return &PgxHoldingRepository{BaseRepository: BaseRepository{Pool: db}}
}

const holdingColumns = `holding_id, name, class, ticker, exchange, quantity, avg_cost_native, last_market_price_native, created_at, last_updated_at`

// FindHoldingByID retrieves one holding.
func (r *PgxHoldingRepository) FindHoldingByID(ctx context.Context, holdingID string) (*domain.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE holding_id = $1`

	var m models.Holding
	err := r.Pool.QueryRow(ctx, query, holdingID).Scan(
		&m.HoldingID, &m.Name, &m.Class, &m.Ticker, &m.Exchange,
		&m.Quantity, &m.AvgCostNative, &m.LastMarketPriceNative,
		&m.CreatedAt, &m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: holding %s", apperrors.ErrNotFound, holdingID)
		}
		return nil, fmt.Errorf("error finding holding: %w", err)
	}
	holding := mapping.ToDomainHolding(m)
	return &holding, nil
}

// ListHoldings returns every holding, newest first.
func (r *PgxHoldingRepository) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings ORDER BY created_at DESC, holding_id`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var m models.Holding
		if err := rows.Scan(
			&m.HoldingID, &m.Name, &m.Class, &m.Ticker, &m.Exchange,
			&m.Quantity, &m.AvgCostNative, &m.LastMarketPriceNative,
			&m.CreatedAt, &m.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning holding: %w", err)
		}
		holdings = append(holdings, mapping.ToDomainHolding(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

// UpdateLastMarketPrice caches the latest native-currency market price on the
// holding row. This is the refresh pipeline's only holding write.
func (r *PgxHoldingRepository) UpdateLastMarketPrice(ctx context.Context, holdingID string, price decimal.Decimal) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE holdings SET last_market_price_native = $1, last_updated_at = $2 WHERE holding_id = $3`,
		price, time.Now().UTC(), holdingID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating last market price for %s: %v", apperrors.ErrPersistence, holdingID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: holding %s", apperrors.ErrNotFound, holdingID)
	}
	return nil
}
