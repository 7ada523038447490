package market

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

const yahooProviderName = "yahoo"

var yahooPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"regularMarketPrice"\s*:\s*\{[^}]*"raw"\s*:\s*([0-9]+\.?[0-9]*)`),
	regexp.MustCompile(`(?i)"currentPrice"\s*:\s*\{[^}]*"raw"\s*:\s*([0-9]+\.?[0-9]*)`),
}

var yahooCurrencyPattern = regexp.MustCompile(`"currency"\s*:\s*"([A-Z]{3})"`)

// YahooQuoteProvider scrapes the embedded JSON of the Yahoo Finance quote page.
type YahooQuoteProvider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

func NewYahooQuoteProvider(client *http.Client, timeout time.Duration) *YahooQuoteProvider {
	return &YahooQuoteProvider{
		client:  client,
		baseURL: "https://finance.yahoo.com/quote/",
		timeout: timeout,
		now:     time.Now,
	}
}

func (p *YahooQuoteProvider) Name() string { return yahooProviderName }

// WithBaseURL points the provider at a different host. Tests use this.
func (p *YahooQuoteProvider) WithBaseURL(base string) *YahooQuoteProvider {
	p.baseURL = base
	return p
}

func (p *YahooQuoteProvider) FetchQuote(ctx context.Context, symbol SymbolKey) (domain.Quote, error) {
	quoteURL := p.baseURL + url.PathEscape(symbol.YahooKey())
	body, err := fetchBody(ctx, p.client, quoteURL, p.timeout)
	if err != nil {
		return domain.Quote{}, apperrors.NewProviderError(yahooProviderName, apperrors.ProviderFetchFailed, err)
	}

	for _, rx := range yahooPricePatterns {
		m := rx.FindSubmatch(body)
		if m == nil {
			continue
		}
		price, perr := decimal.NewFromString(string(m[1]))
		if perr != nil || !price.IsPositive() {
			continue
		}
		currency := "USD"
		if cm := yahooCurrencyPattern.FindSubmatch(body); cm != nil {
			currency = string(cm[1])
		}
		return domain.Quote{
			Provider:  yahooProviderName,
			Price:     price,
			Currency:  currency,
			AsOf:      p.now().UTC(),
			SourceURL: quoteURL,
		}, nil
	}
	return domain.Quote{}, apperrors.NewProviderError(yahooProviderName, apperrors.ProviderParseFailed, nil)
}
