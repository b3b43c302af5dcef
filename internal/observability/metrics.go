package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/labflow-backend/internal/platform/envutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	transitions *prometheus.CounterVec

	storeWrites       *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
	storeConflicts *prometheus.CounterVec
	storeRetryable   *prometheus.CounterVec

	renders *prometheus.CounterVec
	mails   *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics set when METRICS_ENABLED is on.
// Every method is safe on a nil *Metrics.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an isolated metric set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labflow_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labflow_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_workflow_transitions_total",
			Help: "Workflow transitions by operation and resulting overall status.",
		}, []string{"operation", "status"}),
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_store_writes_total",
			Help: "Test record store writes by operation/outcome.",
		}, []string{"operation", "status"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labflow_store_write_duration_seconds",
			Help:    "Test record store write latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"operation", "status"}),
		storeConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_store_conflicts_total",
			Help: "Store writes that lost a version race.",
		}, []string{"operation"}),
		storeRetryable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_store_retryable_total",
			Help: "Store writes that failed transiently.",
		}, []string{"operation"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_document_renders_total",
			Help: "Rendered PDFs by kind/status.",
		}, []string{"kind", "status"}),
		mails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_mails_total",
			Help: "Outbound mails by kind/status.",
		}, []string{"kind", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.transitions,
		m.storeWrites, m.storeLatency, m.storeConflicts, m.storeRetryable,
		m.renders, m.mails,
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orDefault(method, "UNKNOWN")
	route = orDefault(route, "unknown")
	status = orDefault(status, "0")
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncTransition(operation, status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(orDefault(operation, "unknown"), orDefault(status, "unknown")).Inc()
}

func (m *Metrics) ObserveStoreWrite(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	operation = orDefault(operation, "unknown")
	status = orDefault(status, "unknown")
	m.storeWrites.WithLabelValues(operation, status).Inc()
	m.storeLatency.WithLabelValues(operation, status).Observe(dur.Seconds())
}

func (m *Metrics) IncStoreConflict(operation string) {
	if m == nil {
		return
	}
	m.storeConflicts.WithLabelValues(orDefault(operation, "unknown")).Inc()
}

func (m *Metrics) IncStoreRetryable(operation string) {
	if m == nil {
		return
	}
	m.storeRetryable.WithLabelValues(orDefault(operation, "unknown")).Inc()
}

func (m *Metrics) IncRender(kind string, err error) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(orDefault(kind, "unknown"), outcome(err)).Inc()
}

func (m *Metrics) IncMail(kind string, err error) {
	if m == nil {
		return
	}
	m.mails.WithLabelValues(orDefault(kind, "unknown"), outcome(err)).Inc()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
