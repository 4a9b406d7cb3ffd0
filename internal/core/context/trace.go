package context

import (
	"context"

	"nexa/internal/core/id"
)

// TraceContext carries the correlation IDs of a single API request. The
// trace middleware builds it from inbound headers, generating fresh IDs
// when the caller sent none.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace attaches trace information to ctx.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the trace information carried by ctx, or nil when ctx
// did not pass through the trace middleware.
func GetTrace(ctx context.Context) *TraceContext {
	if trace, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return trace
	}
	return nil
}

// GetTraceID returns the trace ID from ctx. Untraced contexts (sweeps,
// CLI runs) get a fresh ID so their log lines stay correlatable.
func GetTraceID(ctx context.Context) string {
	if trace := GetTrace(ctx); trace != nil {
		return trace.TraceID
	}
	return id.New().String()
}

// GetRequestID returns the request ID from ctx, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	if trace := GetTrace(ctx); trace != nil {
		return trace.RequestID
	}
	return ""
}
