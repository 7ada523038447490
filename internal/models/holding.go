package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding mirrors the holdings table.
type Holding struct {
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
