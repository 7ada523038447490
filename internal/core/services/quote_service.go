package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/market"
	"github.com/holdwatch/valuation_backend/internal/platform/cache"
)

// quoteAgreementTolerance is the relative deviation under which contributing
// providers count as agreeing. Tunable policy, not a contract: the persisted
// figures never depend on it, only the confidence signal does.
const quoteAgreementTolerance = 0.01

// conflictConfidence is reported when contributors disagree beyond tolerance.
const conflictConfidence = 0.5

// quoteService reconciles quotes from an ordered provider list into one
// AggregateQuote. Every provider call goes through the cache store, one key
// per provider+holding pair.
type quoteService struct {
	BaseService
	cacheStore *cache.Store
	providers  []market.QuoteProvider
	stockTTL   time.Duration
}

// NewQuoteService creates the aggregator. Providers are tried in the order
// given; that order is also the price tie-break.
func NewQuoteService(store *cache.Store, providers []market.QuoteProvider, stockTTL time.Duration) portssvc.QuoteSvcFacade {
	return &quoteService{cacheStore: store, providers: providers, stockTTL: stockTTL}
}

type providerResult struct {
	quote domain.Quote
	err   error
}

func (s *quoteService) FetchAggregateQuote(ctx context.Context, symbol market.SymbolKey) (*domain.AggregateQuote, error) {
	if len(s.providers) == 0 {
		return nil, apperrors.ErrNoQuoteAvailable
	}

	// Distinct providers may run concurrently; the slice keeps priority order.
	results := make([]providerResult, len(s.providers))
	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p market.QuoteProvider) {
			defer wg.Done()
			key := cache.StockKey(symbol.Exchange, symbol.Ticker, p.Name())
			quote, err := cache.GetOrFetchJSON(ctx, s.cacheStore, key, s.stockTTL,
				func(ctx context.Context) (domain.Quote, error) {
					return p.FetchQuote(ctx, symbol)
				})
			results[i] = providerResult{quote: quote, err: err}
		}(i, p)
	}
	wg.Wait()

	var contributors []domain.Quote
	for i, r := range results {
		if r.err != nil {
			// Non-fatal: record and exclude.
			s.LogWarn(ctx, "Quote provider failed",
				slog.String("provider", s.providers[i].Name()),
				slog.String("ticker", symbol.Ticker),
				slog.String("error", r.err.Error()),
			)
			continue
		}
		if len(contributors) > 0 && r.quote.Currency != contributors[0].Currency {
			s.LogWarn(ctx, "Quote excluded for currency mismatch",
				slog.String("provider", r.quote.Provider),
				slog.String("currency", r.quote.Currency),
				slog.String("expected", contributors[0].Currency),
			)
			continue
		}
		contributors = append(contributors, r.quote)
	}

	if len(contributors) == 0 {
		return nil, fmt.Errorf("%w: all %d providers failed for %s", apperrors.ErrNoQuoteAvailable, len(s.providers), symbol.Ticker)
	}

	// Priority, not averaging: the first successful provider sets the price.
	first := contributors[0]
	agg := &domain.AggregateQuote{
		Price:      first.Price,
		Currency:   first.Currency,
		Confidence: confidenceFor(contributors),
		AsOf:       first.AsOf,
		Quotes:     contributors,
	}
	return agg, nil
}

// confidenceFor is 1.0 for a lone contributor or full agreement within
// quoteAgreementTolerance of the aggregate price, conflictConfidence otherwise.
func confidenceFor(contributors []domain.Quote) float64 {
	if len(contributors) <= 1 {
		return 1.0
	}
	anchor := contributors[0].Price
	if !anchor.IsPositive() {
		// A non-positive anchor cannot corroborate agreement.
		return conflictConfidence
	}
	for _, q := range contributors[1:] {
		deviation := q.Price.Sub(anchor).Abs().Div(anchor).InexactFloat64()
		if deviation > quoteAgreementTolerance {
			return conflictConfidence
		}
	}
	return 1.0
}

func (s *quoteService) ProbeMarket(ctx context.Context, req dto.MarketProbeRequest) (*dto.MarketProbeResponse, error) {
	symbol := market.ResolveSymbol(req.Ticker, req.Exchange)
	agg, err := s.FetchAggregateQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &dto.MarketProbeResponse{
		Ticker:             symbol.Ticker,
		Exchange:           symbol.Exchange,
		Price:              agg.Price,
		Currency:           agg.Currency,
		Confidence:         agg.Confidence,
		AsOf:               agg.AsOf,
		ContributingQuotes: dto.ToContributingQuotes(agg.Quotes),
	}, nil
}
