// Package metrics exports proxy and solver metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	solveRequests *prometheus.CounterVec
	solveLatency  *prometheus.HistogramVec
	solveTokens   *prometheus.CounterVec
	solveActive   prometheus.Gauge
}

var latencyBuckets = []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "task_solver",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	m.httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "task_solver",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   latencyBuckets,
	}, []string{"route"})

	m.solveRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "task_solver",
		Name:      "solve_requests_total",
		Help:      "Solve calls by source, engine and status.",
	}, []string{"source", "engine", "status"})
	m.solveLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "task_solver",
		Name:      "solve_duration_seconds",
		Help:      "Model latency per solve call.",
		Buckets:   latencyBuckets,
	}, []string{"engine"})
	m.solveTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "task_solver",
		Name:      "solve_tokens_total",
		Help:      "Tokens reported by the provider.",
	}, []string{"engine", "type"})
	m.solveActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "task_solver",
		Name:      "solve_in_flight",
		Help:      "Solve calls waiting for the model.",
	})

	m.registry.MustRegister(
		m.httpRequests, m.httpLatency,
		m.solveRequests, m.solveLatency, m.solveTokens, m.solveActive,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Instrument оборачивает ручку счётчиком и гистограммой под именем route.
func (m *Metrics) Instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(sw.code)).Inc()
		m.httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// SolveStarted отмечает начало вызова модели; вернувшуюся функцию нужно
// вызвать по завершении.
func (m *Metrics) SolveStarted() func() {
	if m == nil {
		return func() {}
	}
	m.solveActive.Inc()
	return m.solveActive.Dec
}

func (m *Metrics) ObserveSolve(source, engine, status string, d time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.solveRequests.WithLabelValues(source, engine, status).Inc()
	m.solveLatency.WithLabelValues(engine).Observe(d.Seconds())
	if promptTokens > 0 {
		m.solveTokens.WithLabelValues(engine, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.solveTokens.WithLabelValues(engine, "completion").Add(float64(completionTokens))
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
