package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSymbol(t *testing.T) {
	tests := []struct {
		name         string
		ticker       string
		exchange     string
		wantTicker   string
		wantExchange string
	}{
		{name: "explicit exchange kept", ticker: "orcl", exchange: "nyse", wantTicker: "ORCL", wantExchange: "NYSE"},
		{name: "known nasdaq ticker guessed", ticker: "aapl", exchange: "", wantTicker: "AAPL", wantExchange: "NASDAQ"},
		{name: "unknown ticker defaults to nyse", ticker: "ibm", exchange: "", wantTicker: "IBM", wantExchange: "NYSE"},
		{name: "embedded whitespace stripped", ticker: " BRK . B ", exchange: " nyse ", wantTicker: "BRK.B", wantExchange: "NYSE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveSymbol(tc.ticker, tc.exchange)
			assert.Equal(t, tc.wantTicker, got.Ticker)
			assert.Equal(t, tc.wantExchange, got.Exchange)
		})
	}
}

func TestSymbolKeyEncodings(t *testing.T) {
	key := SymbolKey{Ticker: "BRK.B", Exchange: "NYSE"}
	assert.Equal(t, "BRK.B:NYSE", key.GoogleKey())
	assert.Equal(t, "BRK-B", key.YahooKey())
}
