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

func TestExchangeRateFxProvider_FetchRate(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"base":"USD","date":"2026-03-01","rates":{"JPY":149.855,"EUR":0.92}}`))
	}))
	defer srv.Close()

	p := NewExchangeRateFxProvider(srv.Client(), time.Second).WithBaseURL(srv.URL + "/v4/latest/")

	rate, err := p.FetchRate(context.Background(), "USDJPY")
	require.NoError(t, err)

	assert.Equal(t, "USDJPY", rate.Pair)
	assert.Equal(t, "149.855", rate.Rate.String())
	assert.Equal(t, "/v4/latest/USD", gotPath)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), rate.AsOf)
}

func TestExchangeRateFxProvider_RejectsMalformedPair(t *testing.T) {
	p := NewExchangeRateFxProvider(http.DefaultClient, time.Second)

	for _, pair := range []string{"", "USD", "usdjpy", "USD/JPY", "USDJPYX"} {
		_, err := p.FetchRate(context.Background(), pair)
		require.Error(t, err, "pair %q", pair)

		pe, ok := apperrors.AsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ProviderUnsupportedSubject, pe.Reason)
	}
}

func TestExchangeRateFxProvider_MissingQuoteCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	p := NewExchangeRateFxProvider(srv.Client(), time.Second).WithBaseURL(srv.URL + "/")

	_, err := p.FetchRate(context.Background(), "USDJPY")
	require.Error(t, err)

	pe, ok := apperrors.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ProviderParseFailed, pe.Reason)
}

func TestExchangeRateFxProvider_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewExchangeRateFxProvider(srv.Client(), time.Second).WithBaseURL(srv.URL + "/")

	_, err := p.FetchRate(context.Background(), "USDJPY")
	require.Error(t, err)

	pe, ok := apperrors.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ProviderFetchFailed, pe.Reason)
}
