package core

import "time"

const (
	// DefaultQuota is the number of requests the API accepts per window.
	DefaultQuota = 300

	// DefaultWindow is the length of a rate limit window.
	DefaultWindow = 60 * time.Second
)

// RateWindow captures the request count issued since WindowStart.
type RateWindow struct {
	WindowStart time.Time `json:"window_start"`
	Count       int       `json:"count"`
}

// Elapsed reports how long the window has been open at now.
func (w RateWindow) Elapsed(now time.Time) time.Duration {
	return now.Sub(w.WindowStart)
}
