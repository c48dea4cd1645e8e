// Package metrics exposes Prometheus instrumentation for the API and
// the practice engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for this process.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	questionsServed prometheus.Counter
	answersTotal    *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edukid_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edukid_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		questionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edukid_questions_served_total",
			Help: "Questions selected and returned to students.",
		}),
		answersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edukid_answers_total",
			Help: "Graded answers by outcome.",
		}, []string{"correct"}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.questionsServed,
		m.answersTotal,
	)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// QuestionServed counts one question selection.
func (m *Metrics) QuestionServed() {
	m.questionsServed.Inc()
}

// AnswerRecorded counts one graded answer.
func (m *Metrics) AnswerRecorded(correct bool) {
	m.answersTotal.WithLabelValues(strconv.FormatBool(correct)).Inc()
}
