package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	instance *ClientMetrics
	once     sync.Once
)

// ClientMetrics holds all metrics collected by the GridStore client.
type ClientMetrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    prometheus.Counter

	// Node health metrics
	ActiveNodes       prometheus.Gauge
	NodeDeactivations *prometheus.CounterVec
	NodeRecoveries    *prometheus.CounterVec
}

// Default returns the process-wide metrics instance, creating and
// registering it on first use.
func Default() *ClientMetrics {
	once.Do(func() {
		instance = newClientMetrics()
	})
	return instance
}

func newClientMetrics() *ClientMetrics {
	return &ClientMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gridstore_client_requests_total",
			Help: "Total requests issued, by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridstore_client_request_duration_seconds",
			Help:    "Request latency distribution by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		RetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gridstore_client_retries_total",
			Help: "Total retry attempts across all requests",
		}),
		ActiveNodes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gridstore_client_active_nodes",
			Help: "Number of nodes currently in the active set",
		}),
		NodeDeactivations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gridstore_client_node_deactivations_total",
			Help: "Times a node was moved to the offline queue, by node",
		}, []string{"node"}),
		NodeRecoveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gridstore_client_node_recoveries_total",
			Help: "Times a node passed its liveness probe and was reinstated, by node",
		}, []string{"node"}),
	}
}
