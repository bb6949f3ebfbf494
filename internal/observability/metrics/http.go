package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatAnswersTotal   *prometheus.CounterVec
	chatFallbacksTotal *prometheus.CounterVec
	extractionsTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invoice",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invoice",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatAnswersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice",
			Subsystem: "chat",
			Name:      "answers_total",
			Help:      "Chat answers by the tier that produced them.",
		},
		[]string{"service", "tier"},
	)
	chatFallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice",
			Subsystem: "chat",
			Name:      "fallbacks_total",
			Help:      "Answer tiers skipped by failure reason.",
		},
		[]string{"service", "tier", "reason"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoice",
			Name:      "extractions_total",
			Help:      "Invoice records extracted by source.",
		},
		[]string{"service", "source"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatAnswersTotal,
		chatFallbacksTotal,
		extractionsTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatAnswersTotal:   chatAnswersTotal,
		chatFallbacksTotal: chatFallbacksTotal,
		extractionsTotal:   extractionsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	const invoices = "/api/invoices/"
	if !strings.HasPrefix(path, invoices) {
		return path
	}
	switch rest := strings.TrimPrefix(path, invoices); rest {
	case "upload", "sample", "export.xlsx":
		return path
	default:
		return invoices + "{id}"
	}
}

func (m *HTTPServerMetrics) RecordAnswer(tier domain.AnswerTier) {
	m.chatAnswersTotal.WithLabelValues(m.service, string(tier)).Inc()
}

func (m *HTTPServerMetrics) RecordFallback(tier domain.AnswerTier, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.chatFallbacksTotal.WithLabelValues(m.service, string(tier), reason).Inc()
}

func (m *HTTPServerMetrics) RecordExtraction(origin domain.DocumentOrigin) {
	source := string(origin)
	if source == "" {
		source = "unknown"
	}
	m.extractionsTotal.WithLabelValues(m.service, source).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
