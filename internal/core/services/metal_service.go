package services

import (
	"context"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/market"
	"github.com/holdwatch/valuation_backend/internal/platform/cache"
)

// metalService serves the cached gold spot price (home currency per gram).
type metalService struct {
	BaseService
	cacheStore    *cache.Store
	metal         market.MetalProvider
	metalTTL      time.Duration
	marketEnabled bool
}

// NewMetalService creates the commodity spot service.
func NewMetalService(store *cache.Store, metal market.MetalProvider, metalTTL time.Duration, marketEnabled bool) portssvc.MetalSvcFacade {
	return &metalService{cacheStore: store, metal: metal, metalTTL: metalTTL, marketEnabled: marketEnabled}
}

func (s *metalService) GetGoldSpot(ctx context.Context) (*dto.MetalSpotResponse, error) {
	if !s.marketEnabled {
		return nil, apperrors.ErrFeatureDisabled
	}
	quote, err := cache.GetOrFetchJSON(ctx, s.cacheStore, cache.MetalKey("gold"), s.metalTTL,
		func(ctx context.Context) (domain.Quote, error) {
			return s.metal.FetchSpot(ctx, "gold")
		})
	if err != nil {
		return nil, err
	}
	return &dto.MetalSpotResponse{
		Metal:            "gold",
		PriceHomePerGram: quote.Price,
		Currency:         quote.Currency,
		AsOf:             quote.AsOf,
	}, nil
}
