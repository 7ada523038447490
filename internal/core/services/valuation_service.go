package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	portsrepo "github.com/holdwatch/valuation_backend/internal/core/ports/repositories"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/market"
	"github.com/holdwatch/valuation_backend/internal/platform/cache"
	"github.com/holdwatch/valuation_backend/internal/utils/valuemath"
)

// valuationService runs the refresh pipeline: native quote, FX rate, home
// conversion, append. Each stage depends on the previous one, so the sequence
// is strictly sequential even though provider calls inside the aggregator run
// concurrently.
type valuationService struct {
	BaseService
	holdingRepo   portsrepo.HoldingRepository
	valuationRepo portsrepo.ValuationRepository
	cacheStore    *cache.Store
	quotes        portssvc.QuoteSvcFacade
	fx            market.FxProvider
	homeCurrency  string
	fxTTL         time.Duration
	marketEnabled bool
	now           func() time.Time
}

// NewValuationService wires the refresh pipeline.
func NewValuationService(
	holdingRepo portsrepo.HoldingRepository,
	valuationRepo portsrepo.ValuationRepository,
	cacheStore *cache.Store,
	quotes portssvc.QuoteSvcFacade,
	fx market.FxProvider,
	homeCurrency string,
	fxTTL time.Duration,
	marketEnabled bool,
) portssvc.ValuationSvcFacade {
	return &valuationService{
		holdingRepo:   holdingRepo,
		valuationRepo: valuationRepo,
		cacheStore:    cacheStore,
		quotes:        quotes,
		fx:            fx,
		homeCurrency:  homeCurrency,
		fxTTL:         fxTTL,
		marketEnabled: marketEnabled,
		now:           time.Now,
	}
}

func (s *valuationService) RefreshValuation(ctx context.Context, holdingID string) (*dto.RefreshValuationResponse, error) {
	// Fail fast before any provider is contacted; no partial side effects.
	if !s.marketEnabled {
		return nil, apperrors.ErrFeatureDisabled
	}

	holding, err := s.holdingRepo.FindHoldingByID(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if !holding.Class.SupportsLiveRefresh() {
		return nil, fmt.Errorf("%w: class %s", apperrors.ErrHoldingNotEligible, holding.Class)
	}

	symbol := market.ResolveSymbol(holding.Ticker, holding.Exchange)
	agg, err := s.quotes.FetchAggregateQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !agg.Price.IsPositive() {
		return nil, fmt.Errorf("%w: aggregate price %s is not positive", apperrors.ErrNoQuoteAvailable, agg.Price)
	}

	fxRate, err := s.fetchFxRate(ctx, agg.Currency)
	if err != nil {
		return nil, err
	}

	figures, err := valuemath.Compute(agg.Price, holding.Quantity, fxRate)
	if err != nil {
		return nil, err
	}

	valuation := domain.Valuation{
		HoldingID:     holding.HoldingID,
		AsOf:          s.now().UTC(),
		ValueHome:     figures.TotalValueHome,
		UnitPriceHome: figures.UnitPriceHome,
		FxContext:     figures.FxContext,
	}
	valuationID, err := s.valuationRepo.AppendValuation(ctx, valuation)
	if err != nil {
		return nil, err
	}

	// Keep the denormalized last-known native price fresh for the UI and the
	// fallback resolver's second branch.
	if err := s.holdingRepo.UpdateLastMarketPrice(ctx, holding.HoldingID, agg.Price); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Valuation refreshed",
		slog.String("holding_id", holding.HoldingID),
		slog.String("ticker", symbol.Ticker),
		slog.Int64("valuation_id", valuationID),
		slog.Float64("confidence", agg.Confidence),
	)

	return &dto.RefreshValuationResponse{
		HoldingID:      holding.HoldingID,
		NativePrice:    agg.Price,
		HomeUnitPrice:  figures.UnitPriceHome,
		HomeTotalValue: figures.TotalValueHome,
		Fx: dto.FxSnapshot{
			Pair: figures.FxContext.Pair,
			Rate: figures.FxContext.Rate,
			AsOf: figures.FxContext.AsOf,
		},
		Confidence:           agg.Confidence,
		ContributingQuotes:   dto.ToContributingQuotes(agg.Quotes),
		PersistedValuationID: valuationID,
	}, nil
}

// ListValuationHistory reads the append-only log for one holding, newest
// first. The holding lookup runs first so a missing holding surfaces as
// ErrNotFound rather than an empty history.
func (s *valuationService) ListValuationHistory(ctx context.Context, holdingID string, limit int) ([]dto.ValuationRecord, error) {
	if _, err := s.holdingRepo.FindHoldingByID(ctx, holdingID); err != nil {
		return nil, err
	}
	valuations, err := s.valuationRepo.ListValuations(ctx, holdingID, limit)
	if err != nil {
		return nil, err
	}
	return dto.ToValuationRecords(valuations), nil
}

// fetchFxRate resolves native->home through the cache store, collapsing to
// the identity rate when the currencies coincide.
func (s *valuationService) fetchFxRate(ctx context.Context, nativeCurrency string) (domain.FxRate, error) {
	if nativeCurrency == s.homeCurrency {
		return valuemath.IdentityFxRate(s.homeCurrency, s.now().UTC()), nil
	}
	pair := domain.FxPair(nativeCurrency, s.homeCurrency)
	return cache.GetOrFetchJSON(ctx, s.cacheStore, cache.FxKey(pair), s.fxTTL,
		func(ctx context.Context) (domain.FxRate, error) {
			return s.fx.FetchRate(ctx, pair)
		})
}
