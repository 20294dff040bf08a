package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// EngineMetrics is returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	AnomaliesDetected map[string]float64 `json:"anomaliesDetected"`
	InsightsGenerated float64            `json:"insightsGenerated"`
	RateLookups       float64            `json:"rateLookups"`
	RateFallbacks     float64            `json:"rateFallbacks"`
	RateCacheHitRate  float64            `json:"rateCacheHitRate"`
	StoreErrors       float64            `json:"storeErrors"`
	Period            string             `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
