package models

import (
	"encoding/json"
	"time"
)

// CacheEntry mirrors one row of the price_cache table (or its Redis
// equivalent). Payloads are never mutated, only replaced wholesale; staleness
// is judged against a per-key-class TTL supplied by configuration, never
// stored with the entry.
type CacheEntry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetchedAt"`
}
