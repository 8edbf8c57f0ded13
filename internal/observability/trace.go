package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// TraceHeader is the header a caller may set to correlate the playground
// round-trip: the ID minted for a synthesize call can be replayed on the
// execute call that runs its artifacts.
const TraceHeader = "X-Trace-ID"

type traceKey struct{}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext returns the request's trace ID, or "" outside a request.
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceKey{}).(string)
	return traceID
}

func newTraceID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf)
}
