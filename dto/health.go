package dto

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Version      string            `json:"version"`
	Environment  string            `json:"environment"`
	Services     map[string]string `json:"services"`
	ResponseTime int64             `json:"responseTime"`
	Uptime       int64             `json:"uptime"`
}

type DependencyHealth struct {
	Status      string                 `json:"status"`
	LatencyMs   int64                  `json:"latencyMs"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Error       string                 `json:"error,omitempty"`
	LastChecked string                 `json:"lastChecked"`
}

type SystemStats struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAlloc"`
	HeapSys    uint64 `json:"heapSys"`
	NumGC      uint32 `json:"numGC"`
}

type DetailedHealthResponse struct {
	Status       string                      `json:"status"`
	Timestamp    string                      `json:"timestamp"`
	Version      string                      `json:"version"`
	Environment  string                      `json:"environment"`
	ResponseTime int64                       `json:"responseTime"`
	Services     map[string]DependencyHealth `json:"services"`
	System       SystemStats                 `json:"system"`
}

type ProbeResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
	Uptime    int64  `json:"uptime,omitempty"`
}
