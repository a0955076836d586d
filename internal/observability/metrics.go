// Package observability collects Prometheus metrics for the service. The
// Metrics value is passed explicitly to its consumers; a nil *Metrics is a
// no-op everywhere so tests and degraded setups need no fakes.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	logoutsTotal    prometheus.Counter
	tokenAuthTotal  *prometheus.CounterVec
	factoryLatency  prometheus.Histogram
	salesTotal      *prometheus.CounterVec
	saleItemsTotal  prometheus.Counter
	saleRevenue     prometheus.Counter
}

// NewMetrics initializes the registry and collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sliceline_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sliceline_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sliceline_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	logouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sliceline_logouts_total",
		Help: "Logout requests.",
	})
	tokenAuth := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sliceline_token_auth_total",
		Help: "Bearer token authentications by outcome.",
	}, []string{"outcome"})
	factory := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sliceline_factory_latency_seconds",
		Help:    "Factory fulfillment call latency.",
		Buckets: prometheus.DefBuckets,
	})
	sales := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sliceline_sales_total",
		Help: "Placed orders by fulfillment outcome.",
	}, []string{"outcome"})
	saleItems := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sliceline_sale_items_total",
		Help: "Order items sold.",
	})
	saleRevenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sliceline_sale_revenue_total",
		Help: "Revenue from fulfilled orders.",
	})
	registry.MustRegister(requests, duration, logins, logouts, tokenAuth, factory, sales, saleItems, saleRevenue)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		loginsTotal:     logins,
		logoutsTotal:    logouts,
		tokenAuthTotal:  tokenAuth,
		factoryLatency:  factory,
		salesTotal:      sales,
		saleItemsTotal:  saleItems,
		saleRevenue:     saleRevenue,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration for every HTTP request.
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

// LoginSucceeded counts a successful token issue.
func (m *Metrics) LoginSucceeded() {
	if m != nil {
		m.loginsTotal.WithLabelValues("success").Inc()
	}
}

// LoginFailed counts a rejected login.
func (m *Metrics) LoginFailed() {
	if m != nil {
		m.loginsTotal.WithLabelValues("failure").Inc()
	}
}

// Logout counts a logout request.
func (m *Metrics) Logout() {
	if m != nil {
		m.logoutsTotal.Inc()
	}
}

// TokenAuth counts a bearer-token authentication attempt.
func (m *Metrics) TokenAuth(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.tokenAuthTotal.WithLabelValues("success").Inc()
	} else {
		m.tokenAuthTotal.WithLabelValues("failure").Inc()
	}
}

// FactoryLatency observes one factory fulfillment round trip.
func (m *Metrics) FactoryLatency(d time.Duration) {
	if m != nil {
		m.factoryLatency.Observe(d.Seconds())
	}
}

// Sale records a placed order and, when fulfilled, its size and revenue.
func (m *Metrics) Sale(items int, revenue float64, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.salesTotal.WithLabelValues("success").Inc()
		m.saleItemsTotal.Add(float64(items))
		m.saleRevenue.Add(revenue)
	} else {
		m.salesTotal.WithLabelValues("failure").Inc()
	}
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

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
