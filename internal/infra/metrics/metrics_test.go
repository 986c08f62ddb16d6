//go:build !integration

package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg), "second registration must be tolerated")
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/healthcheck", "200"))
	ObserveHTTPRequest("/healthcheck", http.StatusOK, 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/healthcheck", "200")))

	before = testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "404"))
	ObserveHTTPRequest("", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "404")))

	before = testutil.ToFloat64(catalogCacheTotal.WithLabelValues("hit"))
	IncCatalogCache(" HIT ")
	assert.Equal(t, before+1, testutil.ToFloat64(catalogCacheTotal.WithLabelValues("hit")))

	before = testutil.ToFloat64(schedulerRunsTotal.WithLabelValues("exchange_rate_request", "skipped"))
	IncSchedulerRun("exchange_rate_request", "skipped")
	assert.Equal(t, before+1, testutil.ToFloat64(schedulerRunsTotal.WithLabelValues("exchange_rate_request", "skipped")))
}

func TestStoreGauges(t *testing.T) {
	SetDBPoolStats(10, 7, 3)
	assert.Equal(t, float64(10), testutil.ToFloat64(dbPoolConns.WithLabelValues("total")))
	assert.Equal(t, float64(3), testutil.ToFloat64(dbPoolConns.WithLabelValues("in_use")))

	SetBuildInfo("", "abc123", "Vendors")
	assert.Equal(t, float64(1), testutil.ToFloat64(buildInfo.WithLabelValues("dev", "abc123", "vendors")))

	before := testutil.ToFloat64(redisCommandsTotal.WithLabelValues("get", "miss"))
	ObserveRedisCommand("GET", "miss", time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(redisCommandsTotal.WithLabelValues("get", "miss")))
}
