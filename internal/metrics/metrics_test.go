package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordConversion("context")
	m.RecordKey(true)
	m.RecordCommit()
	m.RecordOpenCC("convert_text", "ok", time.Millisecond)
	m.RecordHistoryWrite(nil)
	m.SessionStarted()

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"rimebridge_conversions_total",
		"rimebridge_keys_total",
		"rimebridge_commits_total",
		"rimebridge_opencc_operations_total",
		"rimebridge_opencc_duration_seconds",
		"rimebridge_history_writes_total",
		"rimebridge_active_sessions",
	} {
		assert.True(t, found[name], "metric %q not registered", name)
	}
}

func TestRecorders(t *testing.T) {
	m := New(nil)

	m.RecordKey(true)
	m.RecordKey(true)
	m.RecordKey(false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.KeysTotal.WithLabelValues("handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeysTotal.WithLabelValues("passed")))

	m.RecordHistoryWrite(errors.New("disk full"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryWritesTotal.WithLabelValues("error")))

	m.RecordOpenCC("convert_dictionary", "exception", 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenCCTotal.WithLabelValues("convert_dictionary", "exception")))

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordCommit()

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rimebridge_commits_total 1"))
}
