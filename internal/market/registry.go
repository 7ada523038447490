package market

import (
	"context"
	"net/http"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
)

// Registry wires the provider set used by the services. Equity providers are
// held in fixed priority order. The registry performs no caching and no
// retries; it only constructs and hands out providers.
type Registry struct {
	quoteProviders []QuoteProvider
	fx             FxProvider
	metal          MetalProvider
}

// NewRegistry builds the live provider set: Google then Yahoo for equities,
// exchangerate-api for FX, Tanaka for gold. With enabled=false every provider
// is a noop that fails with ErrFeatureDisabled, matching the offline mode of
// the rest of the pipeline.
func NewRegistry(client *http.Client, timeout time.Duration, enabled bool) *Registry {
	if !enabled {
		return &Registry{
			quoteProviders: []QuoteProvider{noopProvider{}},
			fx:             noopProvider{},
			metal:          noopProvider{},
		}
	}
	return &Registry{
		quoteProviders: []QuoteProvider{
			NewGoogleQuoteProvider(client, timeout),
			NewYahooQuoteProvider(client, timeout),
		},
		fx:    NewExchangeRateFxProvider(client, timeout),
		metal: NewTanakaGoldProvider(client, timeout),
	}
}

// QuoteProviders returns the equity providers in priority order.
func (r *Registry) QuoteProviders() []QuoteProvider { return r.quoteProviders }

func (r *Registry) Fx() FxProvider { return r.fx }

func (r *Registry) Metal() MetalProvider { return r.metal }

// noopProvider stands in for every provider kind when market data is disabled.
type noopProvider struct{}

func (noopProvider) Name() string { return "noop" }

func (noopProvider) FetchQuote(ctx context.Context, symbol SymbolKey) (domain.Quote, error) {
	return domain.Quote{}, apperrors.ErrFeatureDisabled
}

func (noopProvider) FetchRate(ctx context.Context, pair string) (domain.FxRate, error) {
	return domain.FxRate{}, apperrors.ErrFeatureDisabled
}

func (noopProvider) FetchSpot(ctx context.Context, metal string) (domain.Quote, error) {
	return domain.Quote{}, apperrors.ErrFeatureDisabled
}
