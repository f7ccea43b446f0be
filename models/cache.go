package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PlotCacheRecord is a persisted copy of one filtered-plots payload, keyed by
// the filter combination that produced it. It backs the in-memory cache across
// restarts; the expo backend stays the source of truth.
type PlotCacheRecord struct {
	ID        uuid.UUID       `json:"id"`
	FilterKey string          `json:"filter_key"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// IsExpired reports whether the record is past its TTL
func (r *PlotCacheRecord) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
