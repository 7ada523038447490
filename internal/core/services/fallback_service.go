package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	portsrepo "github.com/holdwatch/valuation_backend/internal/core/ports/repositories"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/platform/cache"
	"github.com/shopspring/decimal"
)

// FallbackBranch tags which rule reconstructed a unit price. The tag is
// load-bearing: it is the explanation for why a displayed number is what it
// is, not diagnostic sugar.
type FallbackBranch string

const (
	BranchValuationUnit  FallbackBranch = "valuation_unit"
	BranchMarketPrice    FallbackBranch = "market_price_usd"
	BranchValuationValue FallbackBranch = "valuation_value_fallback"
	BranchNone           FallbackBranch = "none"
)

// FallbackDecision is the resolver's outcome. UnitNative is nil exactly when
// Branch is BranchNone.
type FallbackDecision struct {
	UnitNative *decimal.Decimal
	Branch     FallbackBranch
}

// ResolveFallbackUnitPrice reconstructs a best-effort native-currency unit
// price purely from persisted state. The branches run strictly in order and
// the first satisfied one wins; the ordering prefers precision over
// freshness: a valuation's own embedded FX context beats a possibly-stale
// standalone market price, which beats a reconstruction from the aggregate
// total. Never errors; exhaustion yields BranchNone.
func ResolveFallbackUnitPrice(
	quantity decimal.Decimal,
	lastMarketPriceNative decimal.Decimal,
	latest *domain.Valuation,
	fxPair string,
	cachedFxRate *decimal.Decimal,
) FallbackDecision {
	if latest != nil &&
		latest.UnitPriceHome.IsPositive() &&
		latest.FxContext.Pair == fxPair &&
		latest.FxContext.Rate.IsPositive() {
		unit := latest.UnitPriceHome.Div(latest.FxContext.Rate)
		return FallbackDecision{UnitNative: &unit, Branch: BranchValuationUnit}
	}

	if lastMarketPriceNative.IsPositive() {
		unit := lastMarketPriceNative
		return FallbackDecision{UnitNative: &unit, Branch: BranchMarketPrice}
	}

	if latest != nil &&
		latest.ValueHome.IsPositive() &&
		quantity.IsPositive() &&
		cachedFxRate != nil &&
		cachedFxRate.IsPositive() {
		unit := latest.ValueHome.Div(quantity.Mul(*cachedFxRate))
		return FallbackDecision{UnitNative: &unit, Branch: BranchValuationValue}
	}

	return FallbackDecision{Branch: BranchNone}
}

// traceService exposes the resolver's decision for audit and debugging. It
// depends only on persisted state: the holdings table, the valuations log and
// whatever FX entry happens to sit in the cache. It never fetches live data.
type traceService struct {
	BaseService
	holdingRepo   portsrepo.HoldingRepository
	valuationRepo portsrepo.ValuationRepository
	cacheRepo     portsrepo.CacheRepository
	homeCurrency  string
}

// NewTraceService creates the fallback trace service.
func NewTraceService(
	holdingRepo portsrepo.HoldingRepository,
	valuationRepo portsrepo.ValuationRepository,
	cacheRepo portsrepo.CacheRepository,
	homeCurrency string,
) portssvc.TraceSvcFacade {
	return &traceService{
		holdingRepo:   holdingRepo,
		valuationRepo: valuationRepo,
		cacheRepo:     cacheRepo,
		homeCurrency:  homeCurrency,
	}
}

func (s *traceService) TraceHolding(ctx context.Context, holdingID string) (*dto.HoldingTraceResponse, error) {
	holding, err := s.holdingRepo.FindHoldingByID(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if !holding.Class.SupportsLiveRefresh() {
		return nil, fmt.Errorf("%w: class %s", apperrors.ErrHoldingNotEligible, holding.Class)
	}

	// A valuation with a corrupted FX context surfaces here with the context
	// zeroed, so the first branch rejects it while the stored total can still
	// feed the third.
	latest, err := s.valuationRepo.FindLatestValuation(ctx, holdingID)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		latest = nil
	default:
		return nil, err
	}

	pair := domain.FxPair("USD", s.homeCurrency)
	cachedFx := s.peekCachedFxRate(ctx, pair)

	decision := ResolveFallbackUnitPrice(holding.Quantity, holding.LastMarketPriceNative, latest, pair, cachedFx)

	inputs := dto.TraceInputs{
		Quantity:              holding.Quantity,
		LastMarketPriceNative: holding.LastMarketPriceNative,
		CachedFxRate:          cachedFx,
	}
	var latestAsOf *time.Time
	if latest != nil {
		inputs.LatestUnitPriceHome = &latest.UnitPriceHome
		inputs.LatestValueHome = &latest.ValueHome
		inputs.FxContextPair = latest.FxContext.Pair
		inputs.FxContextRate = &latest.FxContext.Rate
		asOf := latest.AsOf
		latestAsOf = &asOf
	}

	return &dto.HoldingTraceResponse{
		HoldingID:              holding.HoldingID,
		Ticker:                 holding.Ticker,
		ReconstructedUnitPrice: decision.UnitNative,
		Branch:                 string(decision.Branch),
		InputsUsed:             inputs,
		LatestValuationAsOf:    latestAsOf,
	}, nil
}

// peekCachedFxRate reads whatever FX entry is in the cache without fetching.
// Staleness is acceptable here; this path exists precisely for the case
// where live data should not be touched.
func (s *traceService) peekCachedFxRate(ctx context.Context, pair string) *decimal.Decimal {
	entry, err := s.cacheRepo.GetEntry(ctx, cache.FxKey(pair))
	if err != nil {
		return nil
	}
	var rate domain.FxRate
	if err := json.Unmarshal(entry.Payload, &rate); err != nil {
		return nil
	}
	if !rate.Rate.IsPositive() {
		return nil
	}
	return &rate.Rate
}
