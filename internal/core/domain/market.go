package domain

import (
	"fmt"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Quote is a single price observation from one provider, denominated in the
// source's native currency. Immutable once returned.
type Quote struct {
	Provider  string          `json:"provider"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	AsOf      time.Time       `json:"asOf"`
	SourceURL string          `json:"sourceURL"`
}

// AggregateQuote is the reconciliation of one or more provider quotes into a
// single trusted price. It is derived, never persisted directly; only its
// scalar projection reaches the valuations table.
type AggregateQuote struct {
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	Confidence float64         `json:"confidence"`
	AsOf       time.Time       `json:"asOf"`
	Quotes     []Quote         `json:"quotes"` // contributing quotes, priority order
}

// FxRate is a currency-pair rate observation, quote-per-base units.
type FxRate struct {
	Pair string          `json:"pair"` // e.g. USDJPY
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"asOf"`
}

// FxContext is the immutable FX snapshot stored verbatim with each valuation
// so later reconstruction is reproducible even after the live rate moves.
type FxContext struct {
	Pair string          `json:"pair"`
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"as_of"`
}

// Validate fails closed on a context that could not reproduce a valuation.
func (c FxContext) Validate() error {
	if len(c.Pair) != 6 {
		return fmt.Errorf("%w: fx context pair %q is not a currency pair", apperrors.ErrInvalidValuationInput, c.Pair)
	}
	if !c.Rate.IsPositive() {
		return fmt.Errorf("%w: fx context rate must be positive", apperrors.ErrInvalidValuationInput)
	}
	return nil
}

// FxPair builds the conventional 6-letter pair code for base/quote currencies.
func FxPair(base, quote string) string {
	return base + quote
}
