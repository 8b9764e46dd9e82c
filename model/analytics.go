package model

import "time"

// AnalyticsEvent is a single data point for the analytics sink.
type AnalyticsEvent struct {
	Name    string    `json:"name"`
	Blobs   []string  `json:"blobs,omitempty"`
	Doubles []float64 `json:"doubles,omitempty"`
	Indexes []string  `json:"indexes,omitempty"`
	At      time.Time `json:"at"`
}
