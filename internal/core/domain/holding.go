package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass identifies how a holding is priced.
type AssetClass string

const (
	AssetClassUSStock       AssetClass = "us_stock"
	AssetClassJPStock       AssetClass = "jp_stock"
	AssetClassPreciousMetal AssetClass = "precious_metal"
)

// SupportsLiveRefresh reports whether the class is eligible for the live
// quote pipeline. Metals go through the spot endpoint instead.
func (c AssetClass) SupportsLiveRefresh() bool {
	return c == AssetClassUSStock
}

// Holding is a tracked asset. The refresh pipeline reads it and only ever
// writes back LastMarketPriceNative; everything else belongs to the CRUD layer.
type Holding struct {
	HoldingID             string          `json:"holdingID"`
	Name                  string          `json:"name"`
	Class                 AssetClass      `json:"class"`
	Ticker                string          `json:"ticker"`
	Exchange              string          `json:"exchange"`
	Quantity              decimal.Decimal `json:"quantity"`
	AvgCostNative         decimal.Decimal `json:"avgCostNative"`
	LastMarketPriceNative decimal.Decimal `json:"lastMarketPriceNative"`
	CreatedAt             time.Time       `json:"createdAt"`
	LastUpdatedAt         time.Time       `json:"lastUpdatedAt"`
}

// Valuation is one append-only snapshot of a holding's home-currency worth.
// Rows are never updated in place; latest-for-holding is max as-of,
// tie-broken by highest id.
type Valuation struct {
	ValuationID   int64           `json:"valuationID"`
	HoldingID     string          `json:"holdingID"`
	AsOf          time.Time       `json:"asOf"`
	ValueHome     decimal.Decimal `json:"valueHome"`
	UnitPriceHome decimal.Decimal `json:"unitPriceHome"`
	FxContext     FxContext       `json:"fxContext"`
}
