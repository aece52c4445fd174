package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesBackendSeries(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveBackend(http.MethodGet, http.StatusOK, 20*time.Millisecond)
	metrics.ObserveBackend(http.MethodPost, 0, time.Second)

	body := scrape(t, metrics)
	if !strings.Contains(body, `buensabor_backend_requests_total{code="200",method="GET"} 1`) {
		t.Fatalf("expected backend counter, got: %s", body)
	}
	if !strings.Contains(body, `buensabor_backend_requests_total{code="0",method="POST"} 1`) {
		t.Fatalf("expected transport failure sample, got: %s", body)
	}
}

func TestMetricsCountsTransitionsAndCache(t *testing.T) {
	metrics := NewMetrics()
	metrics.OrderTransition("listo")
	metrics.ReportCache(true)
	metrics.ReportCache(false)
	metrics.ReportCache(false)

	body := scrape(t, metrics)
	if !strings.Contains(body, `buensabor_order_transitions_total{to="listo"} 1`) {
		t.Fatalf("expected transition counter, got: %s", body)
	}
	if !strings.Contains(body, `buensabor_report_cache_total{result="miss"} 2`) {
		t.Fatalf("expected cache misses, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveBackend(http.MethodGet, 200, time.Millisecond)
	metrics.OrderTransition("listo")
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "buensabor_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "buensabor_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}
