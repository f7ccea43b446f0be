package shared

import (
	"sync"
	"time"
)

// ServiceMetrics tracks request counts and latency per portal service. The
// health endpoint reports a snapshot of every registered service.
type ServiceMetrics struct {
	ServiceName           string        `json:"service_name"`
	TotalRequests         int64         `json:"total_requests"`
	SuccessfulRequests    int64         `json:"successful_requests"`
	FailedRequests        int64         `json:"failed_requests"`
	TotalProcessingTime   time.Duration `json:"total_processing_time"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	LastUpdated           time.Time     `json:"last_updated"`
	mutex                 sync.RWMutex
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		ServiceName: serviceName,
		LastUpdated: time.Now(),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRequests++
	m.TotalProcessingTime += processingTime
	m.AverageProcessingTime = time.Duration(int64(m.TotalProcessingTime) / m.TotalRequests)

	if success {
		m.SuccessfulRequests++
	} else {
		m.FailedRequests++
	}

	m.LastUpdated = time.Now()
}

// GetSuccessRate returns the success rate as a percentage
func (m *ServiceMetrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalRequests == 0 {
		return 0.0
	}
	return float64(m.SuccessfulRequests) / float64(m.TotalRequests) * 100
}

// MetricsSnapshot is a read-only copy safe to serialize
type MetricsSnapshot struct {
	ServiceName           string        `json:"service_name"`
	TotalRequests         int64         `json:"total_requests"`
	SuccessfulRequests    int64         `json:"successful_requests"`
	FailedRequests        int64         `json:"failed_requests"`
	SuccessRate           float64       `json:"success_rate"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	LastUpdated           time.Time     `json:"last_updated"`
}

// Snapshot returns a consistent copy of the current counters
func (m *ServiceMetrics) Snapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var successRate float64
	if m.TotalRequests > 0 {
		successRate = float64(m.SuccessfulRequests) / float64(m.TotalRequests) * 100
	}

	return MetricsSnapshot{
		ServiceName:           m.ServiceName,
		TotalRequests:         m.TotalRequests,
		SuccessfulRequests:    m.SuccessfulRequests,
		FailedRequests:        m.FailedRequests,
		SuccessRate:           successRate,
		AverageProcessingTime: m.AverageProcessingTime,
		LastUpdated:           m.LastUpdated,
	}
}
