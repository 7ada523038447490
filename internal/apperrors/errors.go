package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrNoQuoteAvailable indicates that every configured quote provider failed
// for a refresh, leaving nothing to aggregate.
var ErrNoQuoteAvailable = errors.New("no quote available")

// ErrUpstreamFetch indicates that a cache producer failed to obtain fresh
// data from its upstream source.
var ErrUpstreamFetch = errors.New("upstream fetch failed")

// ErrInvalidValuationInput indicates a domain precondition violation such as
// a negative price or quantity, or a malformed FX context.
var ErrInvalidValuationInput = errors.New("invalid valuation input")

// ErrHoldingNotEligible indicates the holding's asset class does not support
// a live market refresh.
var ErrHoldingNotEligible = errors.New("holding not eligible for live refresh")

// ErrFeatureDisabled indicates live market refresh is administratively gated off.
var ErrFeatureDisabled = errors.New("live market refresh is disabled")

// ErrPersistence indicates a write to the backing store failed.
var ErrPersistence = errors.New("persistence failure")

// ProviderErrorReason classifies why a single provider call failed.
type ProviderErrorReason string

const (
	ProviderFetchFailed        ProviderErrorReason = "fetch_failed"
	ProviderParseFailed        ProviderErrorReason = "parse_failed"
	ProviderUnsupportedSubject ProviderErrorReason = "unsupported_subject"
)

// ProviderError is local to one provider call. The aggregator absorbs these;
// they never propagate to the request boundary on their own.
type ProviderError struct {
	Provider string
	Reason   ProviderErrorReason
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError for the named provider.
func NewProviderError(provider string, reason ProviderErrorReason, err error) *ProviderError {
	return &ProviderError{Provider: provider, Reason: reason, Err: err}
}

// AsProviderError unwraps err into a *ProviderError if possible.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
