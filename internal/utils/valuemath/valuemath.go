// Package valuemath holds the pure conversion arithmetic of the valuation
// pipeline. Truncation is floor-toward-zero and must stay bit-exact across
// refreshes: these figures are audited, never re-derived.
package valuemath

import (
	"fmt"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// HomeFigures is the scalar projection persisted for one refresh.
type HomeFigures struct {
	UnitPriceHome  decimal.Decimal
	TotalValueHome decimal.Decimal
	FxContext      domain.FxContext
}

// Compute converts a native-currency unit price into home-currency figures:
//
//	unit_price_home  = floor(unit_native * rate * 100) / 100
//	total_value_home = floor(unit_native * quantity * rate)
//
// Truncation, never round-to-nearest. Negative prices and quantities are out
// of domain; a non-positive rate cannot convert anything. Both fail with
// ErrInvalidValuationInput instead of silently producing a negative result.
func Compute(unitNative, quantity decimal.Decimal, fx domain.FxRate) (HomeFigures, error) {
	if unitNative.IsNegative() {
		return HomeFigures{}, fmt.Errorf("%w: native unit price %s is negative", apperrors.ErrInvalidValuationInput, unitNative)
	}
	if quantity.IsNegative() {
		return HomeFigures{}, fmt.Errorf("%w: quantity %s is negative", apperrors.ErrInvalidValuationInput, quantity)
	}
	if !fx.Rate.IsPositive() {
		return HomeFigures{}, fmt.Errorf("%w: fx rate %s is not positive", apperrors.ErrInvalidValuationInput, fx.Rate)
	}
	if err := (domain.FxContext{Pair: fx.Pair, Rate: fx.Rate, AsOf: fx.AsOf}).Validate(); err != nil {
		return HomeFigures{}, err
	}

	unitHome := unitNative.Mul(fx.Rate).RoundDown(2)
	totalHome := unitNative.Mul(quantity).Mul(fx.Rate).RoundDown(0)

	return HomeFigures{
		UnitPriceHome:  unitHome,
		TotalValueHome: totalHome,
		FxContext:      domain.FxContext{Pair: fx.Pair, Rate: fx.Rate, AsOf: fx.AsOf},
	}, nil
}

// IdentityFxRate is the 1:1 rate used when native and home currency coincide.
func IdentityFxRate(currency string, asOf time.Time) domain.FxRate {
	return domain.FxRate{
		Pair: domain.FxPair(currency, currency),
		Rate: decimal.NewFromInt(1),
		AsOf: asOf,
	}
}
