package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTanakaGold_StrictTableRow(t *testing.T) {
	html := `
	<table class="souba">
	  <tr><th>金</th><td>13,256 円/g</td></tr>
	  <tr><th>プラチナ</th><td>5,120 円/g</td></tr>
	</table>`

	price, ok := ParseTanakaGold(html)
	require.True(t, ok)
	assert.Equal(t, "13256", price.String())
}

func TestParseTanakaGold_ProximityScan(t *testing.T) {
	// No table cell shape, but a plausible number close after the 金 label.
	html := `<div class="price-block">本日の金価格 13,256円 (税込)</div>`

	price, ok := ParseTanakaGold(html)
	require.True(t, ok)
	assert.Equal(t, "13256", price.String())
}

func TestParseTanakaGold_SkipsImplausibleNumbers(t *testing.T) {
	// Year and small change amounts must not be mistaken for the price.
	html := `<p>2026年3月 金 前日比 +12 円 本日 13,256 円</p>`

	price, ok := ParseTanakaGold(html)
	require.True(t, ok)
	assert.Equal(t, "13256", price.String())
}

func TestParseTanakaGold_NoPlausiblePrice(t *testing.T) {
	_, ok := ParseTanakaGold(`<p>金 前日比 +12 円</p>`)
	assert.False(t, ok)

	_, ok = ParseTanakaGold(`<html><body>maintenance</body></html>`)
	assert.False(t, ok)
}

func TestTanakaGoldProvider_FetchSpot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<tr><th>金</th><td>13,256 円/g</td></tr>`))
	}))
	defer srv.Close()

	p := NewTanakaGoldProvider(srv.Client(), time.Second).WithPageURL(srv.URL)

	quote, err := p.FetchSpot(context.Background(), "gold")
	require.NoError(t, err)

	assert.Equal(t, "tanaka", quote.Provider)
	assert.Equal(t, "13256", quote.Price.String())
	assert.Equal(t, "JPY", quote.Currency)
}

func TestTanakaGoldProvider_UnsupportedMetal(t *testing.T) {
	p := NewTanakaGoldProvider(http.DefaultClient, time.Second)

	_, err := p.FetchSpot(context.Background(), "platinum")
	require.Error(t, err)

	pe, ok := apperrors.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ProviderUnsupportedSubject, pe.Reason)
}
