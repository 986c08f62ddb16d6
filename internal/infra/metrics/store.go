package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo, dbPoolConns, redisCommandsTotal, redisCommandDuration) }

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_bot_build_info",
			Help: "Constant 1, labelled with the running version and commit.",
		},
		[]string{"version", "commit", "bot_type"},
	)

	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_bot_db_pool_conns",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"}, // total, idle, in_use
	)

	redisCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_bot_redis_commands_total",
			Help: "Redis commands by name and result (ok|miss|error).",
		},
		[]string{"cmd", "result"},
	)

	redisCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exchange_bot_redis_command_seconds",
			Help:    "Redis command latency.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"cmd"},
	)
)

func SetBuildInfo(version, commit, botType string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version, commit, norm(botType)).Set(1)
}

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolConns.WithLabelValues("total").Set(float64(total))
	dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(inUse))
}

func ObserveRedisCommand(cmd, result string, elapsed time.Duration) {
	cmd = norm(cmd)
	redisCommandsTotal.WithLabelValues(cmd, result).Inc()
	redisCommandDuration.WithLabelValues(cmd).Observe(elapsed.Seconds())
}
