package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/holdwatch/valuation_backend/internal/models"
	"github.com/holdwatch/valuation_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxValuationRepository implements the ports.ValuationRepository interface
// using pgxpool. The valuations table is append-only: rows are inserted and
// read, never updated or deleted.
type PgxValuationRepository struct {
	BaseRepository
}

// NewValuationRepository creates a new PgxValuationRepository.
func NewValuationRepository(db *pgxpool.Pool) *PgxValuationRepository {
	return &PgxValuationRepository{BaseRepository: BaseRepository{Pool: db}}
}

// AppendValuation inserts a new valuation row and returns its generated id.
func (r *PgxValuationRepository) AppendValuation(ctx context.Context, valuation domain.Valuation) (int64, error) {
	m, err := mapping.ToModelValuation(valuation)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.Pool.QueryRow(ctx,
		`INSERT INTO valuations (holding_id, as_of, value_home, unit_price_home, fx_context)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		m.HoldingID, m.AsOf, m.ValueHome, m.UnitPriceHome, m.FxContext,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: appending valuation for %s: %v", apperrors.ErrPersistence, valuation.HoldingID, err)
	}
	return id, nil
}

// FindLatestValuation resolves latest-for-holding: max as_of, tie-broken by
// highest id.
func (r *PgxValuationRepository) FindLatestValuation(ctx context.Context, holdingID string) (*domain.Valuation, error) {
	query := `
		SELECT id, holding_id, as_of, value_home, unit_price_home, fx_context
		FROM valuations
		WHERE holding_id = $1
		ORDER BY as_of DESC, id DESC
		LIMIT 1`

	var m models.Valuation
	err := r.Pool.QueryRow(ctx, query, holdingID).Scan(
		&m.ValuationID, &m.HoldingID, &m.AsOf, &m.ValueHome, &m.UnitPriceHome, &m.FxContext,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no valuation for holding %s", apperrors.ErrNotFound, holdingID)
		}
		return nil, fmt.Errorf("error finding latest valuation: %w", err)
	}

	valuation := mapping.ToDomainValuation(m)
	return &valuation, nil
}

// ListValuations returns up to limit rows for a holding, newest first.
func (r *PgxValuationRepository) ListValuations(ctx context.Context, holdingID string, limit int) ([]domain.Valuation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, holding_id, as_of, value_home, unit_price_home, fx_context
		FROM valuations
		WHERE holding_id = $1
		ORDER BY as_of DESC, id DESC
		LIMIT $2`

	rows, err := r.Pool.Query(ctx, query, holdingID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing valuations: %w", err)
	}
	defer rows.Close()

	var valuations []domain.Valuation
	for rows.Next() {
		var m models.Valuation
		if err := rows.Scan(&m.ValuationID, &m.HoldingID, &m.AsOf, &m.ValueHome, &m.UnitPriceHome, &m.FxContext); err != nil {
			return nil, fmt.Errorf("error scanning valuation: %w", err)
		}
		valuations = append(valuations, mapping.ToDomainValuation(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating valuations: %w", err)
	}
	return valuations, nil
}
