package services_test

import (
	"testing"
	"time"

	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/holdwatch/valuation_backend/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func latestValuation(unitHome, valueHome, pair, rate string) *domain.Valuation {
	return &domain.Valuation{
		ValuationID:   1,
		HoldingID:     "h-1",
		AsOf:          time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
		ValueHome:     dec(valueHome),
		UnitPriceHome: dec(unitHome),
		FxContext: domain.FxContext{
			Pair: pair,
			Rate: dec(rate),
			AsOf: time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestResolveFallbackUnitPrice_PrefersValuationUnit(t *testing.T) {
	latest := latestValuation("22513.39", "225133", "USDJPY", "149.855")

	decision := services.ResolveFallbackUnitPrice(dec("10"), dec("151.20"), latest, "USDJPY", decPtr("150.00"))

	assert.Equal(t, services.BranchValuationUnit, decision.Branch)
	require.NotNil(t, decision.UnitNative)
	// 22513.39 / 149.855 reconstructs the native unit price.
	expected := dec("22513.39").Div(dec("149.855"))
	assert.True(t, decision.UnitNative.Equal(expected))
}

func TestResolveFallbackUnitPrice_PairMismatchFallsToMarketPrice(t *testing.T) {
	latest := latestValuation("22513.39", "225133", "USDEUR", "0.92")

	decision := services.ResolveFallbackUnitPrice(dec("10"), dec("151.20"), latest, "USDJPY", nil)

	assert.Equal(t, services.BranchMarketPrice, decision.Branch)
	require.NotNil(t, decision.UnitNative)
	assert.True(t, decision.UnitNative.Equal(dec("151.20")))
}

func TestResolveFallbackUnitPrice_NonPositiveUnitFallsToMarketPrice(t *testing.T) {
	latest := latestValuation("0", "225133", "USDJPY", "149.855")

	decision := services.ResolveFallbackUnitPrice(dec("10"), dec("151.20"), latest, "USDJPY", nil)

	assert.Equal(t, services.BranchMarketPrice, decision.Branch)
}

func TestResolveFallbackUnitPrice_ReconstructsFromAggregateValue(t *testing.T) {
	// No usable unit price and no stored market price, but the aggregate
	// value plus a cached rate still pin down a unit price.
	latest := latestValuation("0", "225133", "USDJPY", "0")

	decision := services.ResolveFallbackUnitPrice(dec("10"), decimal.Zero, latest, "USDJPY", decPtr("149.855"))

	assert.Equal(t, services.BranchValuationValue, decision.Branch)
	require.NotNil(t, decision.UnitNative)
	expected := dec("225133").Div(dec("10").Mul(dec("149.855")))
	assert.True(t, decision.UnitNative.Equal(expected))
}

func TestResolveFallbackUnitPrice_ZeroedFxContextStillFeedsValueBranch(t *testing.T) {
	// A valuation whose stored context was corrupt carries a zero FxContext.
	// That disqualifies the first branch, but its total remains usable.
	latest := &domain.Valuation{
		ValuationID:   1,
		HoldingID:     "h-1",
		AsOf:          time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
		ValueHome:     dec("225133"),
		UnitPriceHome: dec("22513.39"),
	}

	decision := services.ResolveFallbackUnitPrice(dec("10"), decimal.Zero, latest, "USDJPY", decPtr("149.855"))

	assert.Equal(t, services.BranchValuationValue, decision.Branch)
	require.NotNil(t, decision.UnitNative)
	expected := dec("225133").Div(dec("10").Mul(dec("149.855")))
	assert.True(t, decision.UnitNative.Equal(expected))
}

func TestResolveFallbackUnitPrice_ExhaustionYieldsNone(t *testing.T) {
	tests := []struct {
		name     string
		quantity decimal.Decimal
		market   decimal.Decimal
		latest   *domain.Valuation
		fxRate   *decimal.Decimal
	}{
		{name: "no state at all", quantity: dec("10"), market: decimal.Zero, latest: nil, fxRate: nil},
		{name: "aggregate value but no cached rate", quantity: dec("10"), market: decimal.Zero, latest: latestValuation("0", "225133", "USDJPY", "0"), fxRate: nil},
		{name: "aggregate value but zero quantity", quantity: decimal.Zero, market: decimal.Zero, latest: latestValuation("0", "225133", "USDJPY", "0"), fxRate: decPtr("149.855")},
		{name: "non-positive cached rate", quantity: dec("10"), market: decimal.Zero, latest: latestValuation("0", "225133", "USDJPY", "0"), fxRate: decPtr("0")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := services.ResolveFallbackUnitPrice(tc.quantity, tc.market, tc.latest, "USDJPY", tc.fxRate)
			assert.Equal(t, services.BranchNone, decision.Branch)
			assert.Nil(t, decision.UnitNative)
		})
	}
}

func TestResolveFallbackUnitPrice_BranchOrderIsStrict(t *testing.T) {
	// Every branch is satisfiable; the first must win.
	latest := latestValuation("22513.39", "225133", "USDJPY", "149.855")

	decision := services.ResolveFallbackUnitPrice(dec("10"), dec("151.20"), latest, "USDJPY", decPtr("150.00"))

	assert.Equal(t, services.BranchValuationUnit, decision.Branch)
}
