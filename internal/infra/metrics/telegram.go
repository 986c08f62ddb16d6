package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		telegramUpdatesTotal,
		telegramUpdateDuration,
		telegramRateLimitedTotal,
		telegramSendFailuresTotal,
	)
}

var (
	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_bot_telegram_updates_total",
			Help: "Telegram updates dispatched, by handler and result.",
		},
		[]string{"handler", "result"},
	)

	telegramUpdateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exchange_bot_telegram_update_seconds",
			Help:    "Time spent handling one Telegram update.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	telegramRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_bot_telegram_rate_limited_total",
			Help: "Commands and callbacks dropped by the per-chat rate limit.",
		},
	)

	telegramSendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_bot_telegram_send_failures_total",
			Help: "Outbound Bot API calls that failed, by method.",
		},
		[]string{"method"},
	)
)

func ObserveUpdate(handler string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	telegramUpdatesTotal.WithLabelValues(norm(handler), result).Inc()
	telegramUpdateDuration.WithLabelValues(norm(handler)).Observe(elapsed.Seconds())
}

func IncRateLimitTriggered() {
	telegramRateLimitedTotal.Inc()
}

func IncSendFailure(method string) {
	telegramSendFailuresTotal.WithLabelValues(norm(method)).Inc()
}
