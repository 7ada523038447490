package market

import (
	"context"
	"regexp"
	"strings"

	"github.com/holdwatch/valuation_backend/internal/core/domain"
)

// ClientIdentity is sent as the User-Agent on every upstream request so
// sources can attribute our traffic.
const ClientIdentity = "holdwatch-valuation/1.0"

// QuoteProvider fetches a live equity quote for a symbol. Implementations do
// no caching and no retries; both belong to the layers above.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol SymbolKey) (domain.Quote, error)
}

// FxProvider fetches a live rate for a 6-letter currency pair like USDJPY.
type FxProvider interface {
	Name() string
	FetchRate(ctx context.Context, pair string) (domain.FxRate, error)
}

// MetalProvider fetches a spot price for a commodity metal, home-currency per gram.
type MetalProvider interface {
	Name() string
	FetchSpot(ctx context.Context, metal string) (domain.Quote, error)
}

// SymbolKey carries the canonical ticker and exchange for one holding,
// plus the provider-specific key encodings.
type SymbolKey struct {
	Ticker   string
	Exchange string
}

var nasdaqTickers = regexp.MustCompile(`^(AAPL|MSFT|GOOG|GOOGL|META|NVDA)$`)

// ResolveSymbol normalizes a ticker/exchange pair, guessing the exchange for
// well-known tickers when none is given.
func ResolveSymbol(ticker, exchange string) SymbolKey {
	t := strings.ToUpper(strings.Join(strings.Fields(ticker), ""))
	x := strings.ToUpper(strings.TrimSpace(exchange))
	if x == "" {
		if nasdaqTickers.MatchString(t) {
			x = "NASDAQ"
		} else {
			x = "NYSE"
		}
	}
	return SymbolKey{Ticker: t, Exchange: x}
}

// GoogleKey renders the Google Finance path segment, e.g. ORCL:NYSE.
func (k SymbolKey) GoogleKey() string {
	return k.Ticker + ":" + k.Exchange
}

// YahooKey renders the Yahoo symbol; Yahoo spells dots as dashes (BRK.B -> BRK-B).
func (k SymbolKey) YahooKey() string {
	return strings.ReplaceAll(k.Ticker, ".", "-")
}
