package market

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

const tanakaProviderName = "tanaka"

// Gold JPY/gram trades in the thousands; anything outside this window is a
// mis-parse, not a price.
var (
	tanakaMinPlausible = decimal.NewFromInt(1000)
	tanakaMaxPlausible = decimal.NewFromInt(100000)
)

var tanakaWhitespace = regexp.MustCompile(`\s+`)

// tanakaStrictPatterns match the souba table cell for 金 (gold). They are a
// versioned, swappable list: when the page layout breaks, parsing fails as an
// ordinary ProviderError and the list gets a new entry.
var tanakaStrictPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<th[^>]*>\s*金\s*</th>\s*<td[^>]*>\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?)\s*(?:円)?\s*(?:/?\s*g)?\s*</td>`),
	regexp.MustCompile(`(?i)金[^<]*</(?:th|td)>\s*<td[^>]*>\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?)\s*(?:円)?\s*(?:/?\s*g)?\s*</td>`),
}

var tanakaNumberPattern = regexp.MustCompile(`[0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?`)

// TanakaGoldProvider scrapes the Tanaka Kikinzoku public gold price page.
// The page is semi-structured HTML; matching goes strict table pattern first,
// then a proximity scan around the 金 label, then a global sweep.
type TanakaGoldProvider struct {
	client  *http.Client
	pageURL string
	timeout time.Duration
	now     func() time.Time
}

func NewTanakaGoldProvider(client *http.Client, timeout time.Duration) *TanakaGoldProvider {
	return &TanakaGoldProvider{
		client:  client,
		pageURL: "https://gold.tanaka.co.jp/commodity/souba/",
		timeout: timeout,
		now:     time.Now,
	}
}

func (p *TanakaGoldProvider) Name() string { return tanakaProviderName }

// WithPageURL points the provider at a different page. Tests use this.
func (p *TanakaGoldProvider) WithPageURL(u string) *TanakaGoldProvider {
	p.pageURL = u
	return p
}

func (p *TanakaGoldProvider) FetchSpot(ctx context.Context, metal string) (domain.Quote, error) {
	if metal != "gold" {
		return domain.Quote{}, apperrors.NewProviderError(tanakaProviderName, apperrors.ProviderUnsupportedSubject,
			fmt.Errorf("metal %q not quoted by this source", metal))
	}
	body, err := fetchBody(ctx, p.client, p.pageURL, p.timeout)
	if err != nil {
		return domain.Quote{}, apperrors.NewProviderError(tanakaProviderName, apperrors.ProviderFetchFailed, err)
	}

	price, ok := ParseTanakaGold(string(body))
	if !ok {
		return domain.Quote{}, apperrors.NewProviderError(tanakaProviderName, apperrors.ProviderParseFailed, nil)
	}
	return domain.Quote{
		Provider:  tanakaProviderName,
		Price:     price,
		Currency:  "JPY",
		AsOf:      p.now().UTC(),
		SourceURL: p.pageURL,
	}, nil
}

// ParseTanakaGold extracts the gold JPY/gram price from the raw page HTML.
// Exported so the pattern list stays independently testable against saved
// page snapshots.
func ParseTanakaGold(html string) (decimal.Decimal, bool) {
	norm := tanakaWhitespace.ReplaceAllString(strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(html), " ")

	for _, rx := range tanakaStrictPatterns {
		if m := rx.FindStringSubmatch(norm); m != nil {
			if price, ok := parseGroupedNumber(m[1]); ok && price.GreaterThanOrEqual(tanakaMinPlausible) {
				return price, true
			}
		}
	}

	// Proximity scan: first 金 occurrence, then the next ~1200 chars.
	if idx := strings.Index(norm, "金"); idx >= 0 {
		end := idx + 1200
		if end > len(norm) {
			end = len(norm)
		}
		if price, ok := pickPlausibleGoldPrice(norm[idx:end]); ok {
			return price, true
		}
	}

	return pickPlausibleGoldPrice(norm)
}

func parseGroupedNumber(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func pickPlausibleGoldPrice(text string) (decimal.Decimal, bool) {
	for _, raw := range tanakaNumberPattern.FindAllString(text, -1) {
		d, ok := parseGroupedNumber(raw)
		if ok && d.GreaterThanOrEqual(tanakaMinPlausible) && d.LessThanOrEqual(tanakaMaxPlausible) {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}
