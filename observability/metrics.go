package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics aggregates the engine-facing counters exported by the RPC
// surface.
type EscrowMetrics struct {
	OrdersCreated *prometheus.CounterVec
	Fills         *prometheus.CounterVec
	OrdersClosed  prometheus.Counter
	RPCRequests   *prometheus.CounterVec
	RPCLatency    *prometheus.HistogramVec
}

var (
	escrowMetricsOnce sync.Once
	escrowRegistry    *EscrowMetrics
)

// Metrics returns the lazily-initialised metrics registry. Collectors are
// registered with the default prometheus registerer exactly once.
func Metrics() *EscrowMetrics {
	escrowMetricsOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swapescrow",
				Subsystem: "engine",
				Name:      "orders_created_total",
				Help:      "Orders admitted by the make handler, segmented by escrow type.",
			}, []string{"type"}),
			Fills: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swapescrow",
				Subsystem: "engine",
				Name:      "fills_total",
				Help:      "Successful take fills, segmented by escrow type.",
			}, []string{"type"}),
			OrdersClosed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "swapescrow",
				Subsystem: "engine",
				Name:      "orders_closed_total",
				Help:      "Orders fully consumed and reclaimed.",
			}),
			RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swapescrow",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			RPCLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "swapescrow",
				Subsystem: "rpc",
				Name:      "request_seconds",
				Help:      "JSON-RPC request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			escrowRegistry.OrdersCreated,
			escrowRegistry.Fills,
			escrowRegistry.OrdersClosed,
			escrowRegistry.RPCRequests,
			escrowRegistry.RPCLatency,
		)
	})
	return escrowRegistry
}
