package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewarePreservesCallerTraceID(t *testing.T) {
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "synth-run-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/execute", nil)
	req.Header.Set(TraceHeader, "synth-run-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(TraceHeader); got != "synth-run-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestMiddlewareMintsTraceID(t *testing.T) {
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected minted trace id")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/synthesize", nil))

	if rr.Header().Get(TraceHeader) == "" {
		t.Fatalf("expected %s header", TraceHeader)
	}
}

func TestMiddlewareLogsRouteAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"prompt is required"}`))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/synthesize", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["route"] != "/v1/synthesize" {
		t.Fatalf("route = %v", line["route"])
	}
	if line["status"] != float64(http.StatusBadRequest) {
		t.Fatalf("status = %v", line["status"])
	}
	if line["trace_id"] == "" || line["trace_id"] == nil {
		t.Fatalf("trace_id = %v", line["trace_id"])
	}
	if line["bytes"] == float64(0) {
		t.Fatalf("bytes = %v, want written body counted", line["bytes"])
	}
}

func TestRouteLabelBucketsUnknownPaths(t *testing.T) {
	for _, route := range []string{"/v1/health", "/v1/ready", "/v1/metrics", "/v1/synthesize", "/v1/execute"} {
		if got := routeLabel(route); got != route {
			t.Fatalf("routeLabel(%q) = %q", route, got)
		}
	}
	for _, path := range []string{"/", "/v1/execute/extra", "/wp-admin", "/v2/synthesize"} {
		if got := routeLabel(path); got != "other" {
			t.Fatalf("routeLabel(%q) = %q, want bounded label", path, got)
		}
	}
}

func TestTraceIDContextHelpers(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("TraceIDFromContext() = %q outside a request", got)
	}
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
}
