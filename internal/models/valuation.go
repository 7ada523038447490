package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Valuation mirrors the valuations table. FxContext is the raw JSONB column;
// it is validated on the way back into the domain, not trusted as stored.
type Valuation struct {
	ValuationID   int64           `json:"valuationID"`
	HoldingID     string          `json:"holdingID"`
	AsOf          time.Time       `json:"asOf"`
	ValueHome     decimal.Decimal `json:"valueHome"`
	UnitPriceHome decimal.Decimal `json:"unitPriceHome"`
	FxContext     json.RawMessage `json:"fxContext"`
}
