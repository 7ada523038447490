package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/holdwatch/valuation_backend/internal/core/domain"
	"github.com/holdwatch/valuation_backend/internal/models"
)

// ToModelValuation serializes the FX context for the JSONB column.
func ToModelValuation(v domain.Valuation) (models.Valuation, error) {
	raw, err := json.Marshal(v.FxContext)
	if err != nil {
		return models.Valuation{}, fmt.Errorf("marshalling fx context: %w", err)
	}
	return models.Valuation{
		ValuationID:   v.ValuationID,
		HoldingID:     v.HoldingID,
		AsOf:          v.AsOf,
		ValueHome:     v.ValueHome,
		UnitPriceHome: v.UnitPriceHome,
		FxContext:     raw,
	}, nil
}

// ToDomainValuation converts a valuations row. A stored FX context that is
// not valid JSON, or fails validation, is zeroed rather than the row being
// dropped: the persisted totals are still trustworthy on their own, and a
// zero context fails every guard that would try to replay it.
func ToDomainValuation(m models.Valuation) domain.Valuation {
	var ctx domain.FxContext
	if err := json.Unmarshal(m.FxContext, &ctx); err != nil || ctx.Validate() != nil {
		ctx = domain.FxContext{}
	}
	return domain.Valuation{
		ValuationID:   m.ValuationID,
		HoldingID:     m.HoldingID,
		AsOf:          m.AsOf,
		ValueHome:     m.ValueHome,
		UnitPriceHome: m.UnitPriceHome,
		FxContext:     ctx,
	}
}

// ToDomainHolding converts a holdings row.
func ToDomainHolding(m models.Holding) domain.Holding {
	return domain.Holding{
		HoldingID:             m.HoldingID,
		Name:                  m.Name,
		Class:                 domain.AssetClass(m.Class),
		Ticker:                m.Ticker,
		Exchange:              m.Exchange,
		Quantity:              m.Quantity,
		AvgCostNative:         m.AvgCostNative,
		LastMarketPriceNative: m.LastMarketPriceNative,
		CreatedAt:             m.CreatedAt,
		LastUpdatedAt:         m.LastUpdatedAt,
	}
}
