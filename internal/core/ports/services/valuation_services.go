package services

import (
	"context"

	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/market"
)

// QuoteSvcFacade reconciles live provider quotes into a single trusted price.
type QuoteSvcFacade interface {
	// FetchAggregateQuote fails with apperrors.ErrNoQuoteAvailable when every
	// provider fails; partial failures only shrink the contributor list.
	FetchAggregateQuote(ctx context.Context, symbol market.SymbolKey) (*domain.AggregateQuote, error)
	// ProbeMarket runs the aggregator without persisting anything.
	ProbeMarket(ctx context.Context, req dto.MarketProbeRequest) (*dto.MarketProbeResponse, error)
}

// ValuationSvcFacade drives the refresh pipeline for one holding and exposes
// the resulting append-only log.
type ValuationSvcFacade interface {
	RefreshValuation(ctx context.Context, holdingID string) (*dto.RefreshValuationResponse, error)
	// ListValuationHistory returns the newest valuations first, capped at limit.
	ListValuationHistory(ctx context.Context, holdingID string, limit int) ([]dto.ValuationRecord, error)
}

// TraceSvcFacade reconstructs a best-effort unit price from persisted state.
type TraceSvcFacade interface {
	TraceHolding(ctx context.Context, holdingID string) (*dto.HoldingTraceResponse, error)
}

// HoldingSvcFacade is the read-only holdings view used by the debug surface.
type HoldingSvcFacade interface {
	GetHoldingByID(ctx context.Context, holdingID string) (*dto.HoldingResponse, error)
	ListHoldings(ctx context.Context) ([]dto.HoldingResponse, error)
}

// MetalSvcFacade serves cached commodity spot prices.
type MetalSvcFacade interface {
	GetGoldSpot(ctx context.Context) (*dto.MetalSpotResponse, error)
}

// ServiceContainer holds all services needed by the handlers.
type ServiceContainer struct {
	Quote     QuoteSvcFacade
	Valuation ValuationSvcFacade
	Trace     TraceSvcFacade
	Holding   HoldingSvcFacade
	Metal     MetalSvcFacade
}
