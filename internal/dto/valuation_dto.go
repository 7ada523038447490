package dto

import (
	"time"

	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ContributingQuote is one provider's observation, kept in the response for
// auditability.
type ContributingQuote struct {
	Provider string          `json:"provider"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	URL      string          `json:"url"`
}

// FxSnapshot is the FX context a valuation was computed with.
type FxSnapshot struct {
	Pair string          `json:"pair"`
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"asOf"`
}

// RefreshValuationResponse is the success payload of a live refresh.
type RefreshValuationResponse struct {
	HoldingID            string              `json:"holdingID"`
	NativePrice          decimal.Decimal     `json:"nativePrice"`
	HomeUnitPrice        decimal.Decimal     `json:"homeUnitPrice"`
	HomeTotalValue       decimal.Decimal     `json:"homeTotalValue"`
	Fx                   FxSnapshot          `json:"fx"`
	Confidence           float64             `json:"confidence"`
	ContributingQuotes   []ContributingQuote `json:"contributingQuotes"`
	PersistedValuationID int64               `json:"persistedValuationId"`
}

// ToContributingQuotes projects domain quotes into the response shape.
func ToContributingQuotes(quotes []domain.Quote) []ContributingQuote {
	out := make([]ContributingQuote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, ContributingQuote{
			Provider: q.Provider,
			Price:    q.Price,
			Currency: q.Currency,
			URL:      q.SourceURL,
		})
	}
	return out
}

// ValuationRecord is one row of a holding's append-only valuation log.
type ValuationRecord struct {
	ValuationID   int64           `json:"valuationId"`
	HoldingID     string          `json:"holdingID"`
	AsOf          time.Time       `json:"asOf"`
	ValueHome     decimal.Decimal `json:"valueHome"`
	UnitPriceHome decimal.Decimal `json:"unitPriceHome"`
	Fx            FxSnapshot      `json:"fx"`
}

// ToValuationRecords projects domain valuations into the response shape.
func ToValuationRecords(valuations []domain.Valuation) []ValuationRecord {
	out := make([]ValuationRecord, 0, len(valuations))
	for _, v := range valuations {
		out = append(out, ValuationRecord{
			ValuationID:   v.ValuationID,
			HoldingID:     v.HoldingID,
			AsOf:          v.AsOf,
			ValueHome:     v.ValueHome,
			UnitPriceHome: v.UnitPriceHome,
			Fx: FxSnapshot{
				Pair: v.FxContext.Pair,
				Rate: v.FxContext.Rate,
				AsOf: v.FxContext.AsOf,
			},
		})
	}
	return out
}

// TraceInputs records what the fallback resolver looked at, so a displayed
// number can always be explained.
type TraceInputs struct {
	Quantity              decimal.Decimal  `json:"quantity"`
	LastMarketPriceNative decimal.Decimal  `json:"lastMarketPriceNative"`
	LatestUnitPriceHome   *decimal.Decimal `json:"latestUnitPriceHome,omitempty"`
	LatestValueHome       *decimal.Decimal `json:"latestValueHome,omitempty"`
	FxContextPair         string           `json:"fxContextPair,omitempty"`
	FxContextRate         *decimal.Decimal `json:"fxContextRate,omitempty"`
	CachedFxRate          *decimal.Decimal `json:"cachedFxRate,omitempty"`
}

// HoldingTraceResponse explains the fallback resolver's decision for a holding.
type HoldingTraceResponse struct {
	HoldingID              string           `json:"holdingID"`
	Ticker                 string           `json:"ticker"`
	ReconstructedUnitPrice *decimal.Decimal `json:"reconstructedUnitPrice"`
	Branch                 string           `json:"branch"`
	InputsUsed             TraceInputs      `json:"inputsUsed"`
	LatestValuationAsOf    *time.Time       `json:"latestValuationAsOf"`
}

// MarketProbeRequest runs the aggregator without persisting anything.
type MarketProbeRequest struct {
	Ticker   string `json:"ticker" binding:"required"`
	Exchange string `json:"exchange"`
}

// MarketProbeResponse is the diagnostic view of one aggregation run.
type MarketProbeResponse struct {
	Ticker             string              `json:"ticker"`
	Exchange           string              `json:"exchange"`
	Price              decimal.Decimal     `json:"price"`
	Currency           string              `json:"currency"`
	Confidence         float64             `json:"confidence"`
	AsOf               time.Time           `json:"asOf"`
	ContributingQuotes []ContributingQuote `json:"contributingQuotes"`
}

// MetalSpotResponse is the cached commodity spot price.
type MetalSpotResponse struct {
	Metal            string          `json:"metal"`
	PriceHomePerGram decimal.Decimal `json:"priceHomePerGram"`
	Currency         string          `json:"currency"`
	AsOf             time.Time       `json:"asOf"`
}

// HoldingResponse is the read-only holding view.
type HoldingResponse struct {
	HoldingID             string          `json:"holdingID"`
	Name                  string          `json:"name"`
	Class                 string          `json:"class"`
	Ticker                string          `json:"ticker"`
	Exchange              string          `json:"exchange"`
	Quantity              decimal.Decimal `json:"quantity"`
	AvgCostNative         decimal.Decimal `json:"avgCostNative"`
	LastMarketPriceNative decimal.Decimal `json:"lastMarketPriceNative"`
	CreatedAt             time.Time       `json:"createdAt"`
	LastUpdatedAt         time.Time       `json:"lastUpdatedAt"`
}

// ToHoldingResponse converts a domain.Holding to its response DTO.
func ToHoldingResponse(h *domain.Holding) HoldingResponse {
	return HoldingResponse{
		HoldingID:             h.HoldingID,
		Name:                  h.Name,
		Class:                 string(h.Class),
		Ticker:                h.Ticker,
		Exchange:              h.Exchange,
		Quantity:              h.Quantity,
		AvgCostNative:         h.AvgCostNative,
		LastMarketPriceNative: h.LastMarketPriceNative,
		CreatedAt:             h.CreatedAt,
		LastUpdatedAt:         h.LastUpdatedAt,
	}
}

// VersionResponse is the debug/version payload.
type VersionResponse struct {
	Version       string `json:"version"`
	MarketEnabled bool   `json:"marketEnabled"`
}
