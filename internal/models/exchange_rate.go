package models

import "time"

// RateFreshness is how long a persisted rate counts as current before the
// fetcher goes back to the API.
const RateFreshness = time.Hour

// ExchangeRate is the persisted fallback for a currency pair. It backs the
// cache so a rate-API outage degrades to stale rates instead of failures.
type ExchangeRate struct {
	ID           uint   `gorm:"primarykey"`
	BaseCurrency string `gorm:"size:3;not null;uniqueIndex:idx_rate_pair"`
	TargetCurrency string `gorm:"size:3;not null;uniqueIndex:idx_rate_pair"`
	Rate         float64 `gorm:"not null"`
	UpdatedAt    time.Time
}

// IsFresh reports whether the rate was refreshed within the freshness window.
func (r *ExchangeRate) IsFresh(now time.Time) bool {
	return now.Sub(r.UpdatedAt) < RateFreshness
}
