package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legal_search",
			Name:      "http_request_duration_seconds",
			Help:      "Request duration in seconds by view (search, document) or route",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "view", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legal_search",
			Name:      "http_requests_total",
			Help:      "Requests by view (search, document) or route",
		},
		[]string{"method", "view", "status"},
	)

	upstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legal_search",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Calls to the legal search API by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legal_search",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Legal search API response time in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"op"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "legal_search",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(upstreamCallsTotal)
	prometheus.MustRegister(upstreamLatency)
	prometheus.MustRegister(rateLimitedTotal)
}

// RecordUpstreamCall records one call to the legal search API.
func RecordUpstreamCall(op, outcome string, d time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	upstreamCallsTotal.WithLabelValues(op, outcome).Inc()
	upstreamLatency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

type viewKey struct{}

type viewLabel struct{ name string }

// SetView names the page kind served for the request in ctx. It is a no-op
// outside Middleware.
func SetView(ctx context.Context, view string) {
	if l, ok := ctx.Value(viewKey{}).(*viewLabel); ok {
		l.name = view
	}
}

// Middleware records request count and duration by view and status. Routes
// whose handler never calls SetView are labelled with their chi route pattern.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			label := &viewLabel{}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), viewKey{}, label)))

			view := label.name
			if view == "" {
				view = routePattern(r)
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)
			httpRequestDuration.WithLabelValues(r.Method, view, code).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, view, code).Inc()
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unknown"
}
