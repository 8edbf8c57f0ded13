package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	synthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscratch_synthesis_requests_total",
			Help: "Total number of synthesis requests by outcome.",
		},
		[]string{"outcome"},
	)
	upstreamLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlscratch_upstream_latency_ms",
			Help:    "Latency of upstream chat-completion calls in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
	)
	sandboxRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscratch_sandbox_runs_total",
			Help: "Total number of sandbox runs by outcome stage.",
		},
		[]string{"outcome"},
	)
	sandboxRunDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlscratch_sandbox_run_duration_ms",
			Help:    "Wall time of sandbox runs in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		synthesisRequestsTotal,
		upstreamLatencyMs,
		sandboxRunsTotal,
		sandboxRunDurationMs,
	)
}

// Synthesis outcomes: "ok", "invalid_input", "upstream_error", "malformed_response".
func ObserveSynthesis(outcome string, upstreamElapsed time.Duration) {
	synthesisRequestsTotal.WithLabelValues(outcome).Inc()
	if upstreamElapsed > 0 {
		upstreamLatencyMs.Observe(float64(upstreamElapsed.Milliseconds()))
	}
}

// Sandbox outcomes: "ok", "schema", "seed", "query", "open".
func ObserveSandboxRun(outcome string, elapsed time.Duration) {
	sandboxRunsTotal.WithLabelValues(outcome).Inc()
	sandboxRunDurationMs.Observe(float64(elapsed.Milliseconds()))
}
