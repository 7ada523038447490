package cache

import "fmt"

// Cache keys are namespaced by kind so TTL classes never cross-contaminate:
// an FX entry and an equity entry can share a store but never a key.

// FxKey keys an FX pair lookup, e.g. fx:USDJPY.
func FxKey(pair string) string {
	return "fx:" + pair
}

// StockKey keys one provider's quote for one holding, e.g.
// stock:NYSE:ORCL:google. One entry per distinct upstream query.
func StockKey(exchange, ticker, provider string) string {
	return fmt.Sprintf("stock:%s:%s:%s", exchange, ticker, provider)
}

// MetalKey keys a commodity spot lookup, e.g. precious_metal:gold.
func MetalKey(metal string) string {
	return "precious_metal:" + metal
}
