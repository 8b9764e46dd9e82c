package dto

// RateLimitInfo is the outcome of one rate limit decision.
type RateLimitInfo struct {
	Allowed    bool  `json:"allowed"`
	Limit      int   `json:"limit"`
	Remaining  int   `json:"remaining"`
	ResetTime  int64 `json:"reset_time"`  // epoch seconds
	RetryAfter int64 `json:"retry_after"` // seconds, set on rejection
	Count      int   `json:"-"`
}

type RateLimitExceededResponse struct {
	Error      string `json:"error" example:"Rate Limit Exceeded"`
	Message    string `json:"message" example:"Too many requests. Limit: 5 requests per 60 seconds"`
	RetryAfter int64  `json:"retryAfter" example:"42"`
	Timestamp  string `json:"timestamp" example:"2025-01-01T00:00:00Z"`
}
