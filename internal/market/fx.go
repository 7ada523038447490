package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

const fxProviderName = "exchangerate-api"

var fxPairPattern = regexp.MustCompile(`^[A-Z]{6}$`)

// ExchangeRateFxProvider fetches rates from the free exchangerate-api JSON
// endpoint. One request per base currency returns every quote currency.
type ExchangeRateFxProvider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

func NewExchangeRateFxProvider(client *http.Client, timeout time.Duration) *ExchangeRateFxProvider {
	return &ExchangeRateFxProvider{
		client:  client,
		baseURL: "https://api.exchangerate-api.com/v4/latest/",
		timeout: timeout,
		now:     time.Now,
	}
}

func (p *ExchangeRateFxProvider) Name() string { return fxProviderName }

// WithBaseURL points the provider at a different host. Tests use this.
func (p *ExchangeRateFxProvider) WithBaseURL(base string) *ExchangeRateFxProvider {
	p.baseURL = base
	return p
}

type exchangeRateResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func (p *ExchangeRateFxProvider) FetchRate(ctx context.Context, pair string) (domain.FxRate, error) {
	if !fxPairPattern.MatchString(pair) {
		return domain.FxRate{}, apperrors.NewProviderError(fxProviderName, apperrors.ProviderUnsupportedSubject,
			fmt.Errorf("pair %q is not a 6-letter currency pair", pair))
	}
	base, quote := pair[:3], pair[3:]

	body, err := fetchBody(ctx, p.client, p.baseURL+base, p.timeout)
	if err != nil {
		return domain.FxRate{}, apperrors.NewProviderError(fxProviderName, apperrors.ProviderFetchFailed, err)
	}

	var parsed exchangeRateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.FxRate{}, apperrors.NewProviderError(fxProviderName, apperrors.ProviderParseFailed, err)
	}
	raw, ok := parsed.Rates[quote]
	if !ok || raw <= 0 {
		return domain.FxRate{}, apperrors.NewProviderError(fxProviderName, apperrors.ProviderParseFailed,
			fmt.Errorf("no %s rate in %s response", quote, base))
	}

	asOf := p.now().UTC()
	if parsed.Date != "" {
		if d, derr := time.Parse("2006-01-02", parsed.Date); derr == nil {
			asOf = d.UTC()
		}
	}
	return domain.FxRate{
		Pair: pair,
		Rate: decimal.NewFromFloat(raw),
		AsOf: asOf,
	}, nil
}
