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

const googleProviderName = "google"

// googlePricePatterns are tried in order; the page layout shifts often enough
// that a single selector is not reliable.
var googlePricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)data-last-price\s*=\s*"([0-9]+\.?[0-9]*)"`),
	regexp.MustCompile(`(?i)aria-label\s*=\s*"[^"]*\$([0-9]+\.?[0-9]*)[^"]*"`),
	regexp.MustCompile(`(?i)"price"\s*:\s*\{[^}]*"raw"\s*:\s*([0-9]+\.?[0-9]*)`),
	regexp.MustCompile(`(?i)>\$\s*([0-9]+\.?[0-9]*)\s*<`),
}

// GoogleQuoteProvider scrapes the public Google Finance quote page.
type GoogleQuoteProvider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

// NewGoogleQuoteProvider builds the provider. baseURL is overridable for tests.
func NewGoogleQuoteProvider(client *http.Client, timeout time.Duration) *GoogleQuoteProvider {
	return &GoogleQuoteProvider{
		client:  client,
		baseURL: "https://www.google.com/finance/quote/",
		timeout: timeout,
		now:     time.Now,
	}
}

func (p *GoogleQuoteProvider) Name() string { return googleProviderName }

// WithBaseURL points the provider at a different host. Tests use this.
func (p *GoogleQuoteProvider) WithBaseURL(base string) *GoogleQuoteProvider {
	p.baseURL = base
	return p
}

func (p *GoogleQuoteProvider) FetchQuote(ctx context.Context, symbol SymbolKey) (domain.Quote, error) {
	quoteURL := p.baseURL + url.PathEscape(symbol.GoogleKey())
	body, err := fetchBody(ctx, p.client, quoteURL, p.timeout)
	if err != nil {
		return domain.Quote{}, apperrors.NewProviderError(googleProviderName, apperrors.ProviderFetchFailed, err)
	}

	for _, rx := range googlePricePatterns {
		if m := rx.FindSubmatch(body); m != nil {
			price, perr := decimal.NewFromString(string(m[1]))
			if perr != nil || !price.IsPositive() {
				continue
			}
			return domain.Quote{
				Provider:  googleProviderName,
				Price:     price,
				Currency:  "USD",
				AsOf:      p.now().UTC(),
				SourceURL: quoteURL,
			}, nil
		}
	}
	return domain.Quote{}, apperrors.NewProviderError(googleProviderName, apperrors.ProviderParseFailed, nil)
}
