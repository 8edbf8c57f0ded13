package observability

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscratch_http_requests_total",
			Help: "Total number of HTTP requests by route.",
		},
		[]string{"method", "route", "status"},
	)

	// Synthesis waits on a chat completion, so the upper buckets reach well
	// past typical web latencies.
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlscratch_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 30, 60},
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDurationSeconds)
}

// serviceRoutes is the fixed endpoint surface. Metrics are labelled with the
// route, never the raw request path, so probes and typo paths cannot grow
// label cardinality.
var serviceRoutes = map[string]struct{}{
	"/v1/health":     {},
	"/v1/ready":      {},
	"/v1/metrics":    {},
	"/v1/synthesize": {},
	"/v1/execute":    {},
}

func routeLabel(path string) string {
	if _, ok := serviceRoutes[path]; ok {
		return path
	}
	return "other"
}

// Middleware stamps each request with a trace ID, records route metrics, and
// emits one structured log line per request when a logger is supplied.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = newTraceID()
			}
			ctx := ContextWithTraceID(r.Context(), traceID)
			w.Header().Set(TraceHeader, traceID)

			start := time.Now()
			recorder := &responseMeta{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))
			elapsed := time.Since(start)

			route := routeLabel(r.URL.Path)
			status := strconv.Itoa(recorder.status)
			httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			httpRequestDurationSeconds.WithLabelValues(r.Method, route, status).Observe(elapsed.Seconds())

			if logger != nil {
				logger.InfoContext(ctx, "http_request",
					slog.String("trace_id", traceID),
					slog.String("method", r.Method),
					slog.String("route", route),
					slog.Int("status", recorder.status),
					slog.Int64("duration_ms", elapsed.Milliseconds()),
					slog.Int("bytes", recorder.bytes),
				)
			}
		})
	}
}

type responseMeta struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseMeta) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseMeta) Write(body []byte) (int, error) {
	n, err := r.ResponseWriter.Write(body)
	r.bytes += n
	return n, err
}
