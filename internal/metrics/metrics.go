// Package metrics provides Prometheus metrics for rimebridge.
//
// Features:
//   - Counters for marshaled snapshots, processed keys and commits
//   - Counters and latency histograms for OpenCC operations
//   - A gauge of open engine sessions
//   - Optional HTTP endpoint for scraping
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rimebridge"

// DurationBuckets are histogram buckets for conversion latencies, from 100µs to 1s.
var DurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// Metrics holds the rimebridge collectors.
type Metrics struct {
	// ConversionsTotal counts snapshots marshaled into host values by kind
	// (commit, context, status, schema_list, key_event).
	ConversionsTotal *prometheus.CounterVec

	// KeysTotal counts key events sent to the engine by result (handled, passed).
	KeysTotal *prometheus.CounterVec

	// CommitsTotal counts committed texts.
	CommitsTotal prometheus.Counter

	// OpenCCTotal counts OpenCC operations by operation and status
	// (ok, exception, error).
	OpenCCTotal *prometheus.CounterVec

	// OpenCCDuration records OpenCC operation latency in seconds.
	OpenCCDuration *prometheus.HistogramVec

	// HistoryWritesTotal counts commit-history writes by status.
	HistoryWritesTotal *prometheus.CounterVec

	// ActiveSessions tracks open engine sessions.
	ActiveSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which tests use to get isolated instances.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Snapshots marshaled into host values",
			},
			[]string{"kind"},
		),
		KeysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "keys_total",
				Help:      "Key events processed",
			},
			[]string{"result"},
		),
		CommitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_total",
				Help:      "Committed texts",
			},
		),
		OpenCCTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "opencc_operations_total",
				Help:      "OpenCC operations",
			},
			[]string{"op", "status"},
		),
		OpenCCDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "opencc_duration_seconds",
				Help:      "OpenCC operation latency",
				Buckets:   DurationBuckets,
			},
			[]string{"op"},
		),
		HistoryWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_writes_total",
				Help:      "Commit history writes",
			},
			[]string{"status"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Open engine sessions",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.ConversionsTotal,
			m.KeysTotal,
			m.CommitsTotal,
			m.OpenCCTotal,
			m.OpenCCDuration,
			m.HistoryWritesTotal,
			m.ActiveSessions,
		)
	}
	return m
}

// RecordConversion counts one marshaled snapshot.
func (m *Metrics) RecordConversion(kind string) {
	m.ConversionsTotal.WithLabelValues(kind).Inc()
}

// RecordKey counts one key event.
func (m *Metrics) RecordKey(handled bool) {
	result := "passed"
	if handled {
		result = "handled"
	}
	m.KeysTotal.WithLabelValues(result).Inc()
}

// RecordCommit counts one committed text.
func (m *Metrics) RecordCommit() {
	m.CommitsTotal.Inc()
}

// RecordOpenCC counts an OpenCC operation and observes its latency.
func (m *Metrics) RecordOpenCC(op, status string, d time.Duration) {
	m.OpenCCTotal.WithLabelValues(op, status).Inc()
	m.OpenCCDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordHistoryWrite counts a commit-history write.
func (m *Metrics) RecordHistoryWrite(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.HistoryWritesTotal.WithLabelValues(status).Inc()
}

// SessionStarted records a session start.
func (m *Metrics) SessionStarted() {
	m.ActiveSessions.Inc()
}

// SessionEnded records a session end.
func (m *Metrics) SessionEnded() {
	m.ActiveSessions.Dec()
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide metrics, registered with the Prometheus
// default registry on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
