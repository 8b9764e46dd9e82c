package model

// RateLimitWindow is the fixed-window counter kept in the counter store.
type RateLimitWindow struct {
	Count       int   `json:"count"`
	WindowStart int64 `json:"windowStart"` // epoch seconds
	ResetTime   int64 `json:"resetTime"`   // epoch seconds
}
