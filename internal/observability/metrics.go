package observability

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus series of the web process.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	reportCache     *prometheus.CounterVec
}

// NewMetrics builds a private registry with the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buensabor_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buensabor_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buensabor_backend_requests_total",
		Help: "REST backend round trips by method and status (0 on transport failure).",
	}, []string{"method", "code"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buensabor_backend_request_duration_seconds",
		Help:    "REST backend round trip duration by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buensabor_order_transitions_total",
		Help: "Order status transitions applied from the boards.",
	}, []string{"to"})
	reportCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buensabor_report_cache_total",
		Help: "Report cache lookups by result.",
	}, []string{"result"})
	registry.MustRegister(requests, duration, backendTotal, backendDuration, transitions, reportCache)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		backendTotal:    backendTotal,
		backendDuration: backendDuration,
		transitions:     transitions,
		reportCache:     reportCache,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveBackend records one REST backend round trip.
func (m *Metrics) ObserveBackend(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.backendDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// OrderTransition counts a status change applied from a board.
func (m *Metrics) OrderTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// ReportCache counts a cache lookup; hit is false on a miss.
func (m *Metrics) ReportCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(result).Inc()
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("observability: response writer cannot hijack")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
