package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/payconsole/infra/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleMetrics(t *testing.T) {
	m := metrics.New()
	// a second instance must not collide with the first
	_ = metrics.New()

	m.ObserveRequest("GET", "/v1/admin/fee-rules", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/v1/admin/fee-rules", 0, time.Second)
	m.CacheResult("admin/fee-rules", true)
	m.CacheResult("admin/fee-rules", false)
	m.CacheResult("admin/fee-rules", false)
	m.Invalidated("admin/fee-rules", 3)
	m.AdminAction("fee-rule.activate", "SUCCEEDED")
	m.ScheduledReport(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("GET", "/v1/admin/fee-rules", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("GET", "/v1/admin/fee-rules", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("admin/fee-rules", "miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CacheEntriesRemoved.WithLabelValues("admin/fee-rules")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdminActionsTotal.WithLabelValues("fee-rule.activate", "SUCCEEDED")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "payconsole_query_cache_lookups_total")
	assert.Contains(t, string(body), "go_goroutines")
}
