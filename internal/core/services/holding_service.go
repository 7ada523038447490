package services

import (
	"context"

	portsrepo "github.com/holdwatch/valuation_backend/internal/core/ports/repositories"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/dto"
)

// holdingService is the read-only holdings view. All holding mutation beyond
// the refresh pipeline's last-price write belongs to the CRUD layer, which is
// outside this backend.
type holdingService struct {
	BaseService
	holdingRepo portsrepo.HoldingRepository
}

// NewHoldingService creates the read-only holding service.
func NewHoldingService(holdingRepo portsrepo.HoldingRepository) portssvc.HoldingSvcFacade {
	return &holdingService{holdingRepo: holdingRepo}
}

func (s *holdingService) GetHoldingByID(ctx context.Context, holdingID string) (*dto.HoldingResponse, error) {
	holding, err := s.holdingRepo.FindHoldingByID(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToHoldingResponse(holding)
	return &resp, nil
}

func (s *holdingService) ListHoldings(ctx context.Context) ([]dto.HoldingResponse, error) {
	holdings, err := s.holdingRepo.ListHoldings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HoldingResponse, 0, len(holdings))
	for i := range holdings {
		out = append(out, dto.ToHoldingResponse(&holdings[i]))
	}
	return out, nil
}
