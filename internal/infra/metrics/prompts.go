package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(promptEventsTotal, rateSubmissionsTotal, rateRejectedSegmentsTotal)
}

var (
	promptEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_bot_prompt_events_total",
			Help: "Pending prompt lifecycle events by kind (begun, resolved, expired, ended).",
		},
		[]string{"kind", "event"},
	)

	rateSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_bot_rate_submissions_total",
			Help: "Exchange rate replies by outcome (accepted, rejected, failed).",
		},
		[]string{"result"},
	)

	rateRejectedSegmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_bot_rate_rejected_segments_total",
			Help: "Malformed segments found in exchange rate replies.",
		},
	)
)

func IncPrompt(kind, event string) {
	promptEventsTotal.WithLabelValues(norm(kind), norm(event)).Inc()
}

func IncRateSubmission(result string, rejected int) {
	rateSubmissionsTotal.WithLabelValues(norm(result)).Inc()
	if rejected > 0 {
		rateRejectedSegmentsTotal.Add(float64(rejected))
	}
}
