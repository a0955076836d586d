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

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.Logout()

	body := scrape(t, metrics)
	if !strings.Contains(body, "sliceline_logouts_total 1") {
		t.Fatalf("expected body to contain sliceline_logouts_total, got: %s", body)
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

	body := scrape(t, metrics)
	if !strings.Contains(body, "sliceline_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "sliceline_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestAuthCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.LoginSucceeded()
	metrics.LoginFailed()
	metrics.LoginFailed()
	metrics.TokenAuth(true)
	metrics.TokenAuth(false)

	body := scrape(t, metrics)
	for _, want := range []string{
		`sliceline_logins_total{outcome="success"} 1`,
		`sliceline_logins_total{outcome="failure"} 2`,
		`sliceline_token_auth_total{outcome="success"} 1`,
		`sliceline_token_auth_total{outcome="failure"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output, got: %s", want, body)
		}
	}
}

func TestSaleMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.Sale(3, 0.15, true)
	metrics.Sale(0, 0, false)
	metrics.FactoryLatency(25 * time.Millisecond)

	body := scrape(t, metrics)
	for _, want := range []string{
		`sliceline_sales_total{outcome="success"} 1`,
		`sliceline_sales_total{outcome="failure"} 1`,
		`sliceline_sale_items_total 3`,
		`sliceline_factory_latency_seconds_count 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output, got: %s", want, body)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var metrics *Metrics
	metrics.LoginSucceeded()
	metrics.LoginFailed()
	metrics.Logout()
	metrics.TokenAuth(true)
	metrics.FactoryLatency(time.Second)
	metrics.Sale(1, 1, true)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics handler, got %d", rr.Code)
	}

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected middleware passthrough, got %d", rr.Code)
	}
}
