package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(assistantCallsLatencyMs, catalogCacheTotal) }

var (
	assistantCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exchange_bot_assistant_calls_latency_ms",
			Help:    "Assistant API call latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"endpoint", "success"},
	)

	catalogCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_bot_currency_catalog_cache_total",
			Help: "Currency catalog lookups served from redis (hit), from the assistant (miss) or degraded by a redis error.",
		},
		[]string{"result"},
	)
)

func ObserveAssistantCall(endpoint string, elapsed time.Duration, success bool) {
	assistantCallsLatencyMs.WithLabelValues(norm(endpoint), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}

// IncCatalogCache records one currency catalog lookup: hit, miss or error.
func IncCatalogCache(result string) {
	catalogCacheTotal.WithLabelValues(norm(result)).Inc()
}
