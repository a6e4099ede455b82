package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	runIDKey     contextKey = "run_id"
	sourceKey    contextKey = "source"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithRunID adds an analysis run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext retrieves the analysis run ID from context.
// Returns empty string if not present.
func RunIDFromContext(ctx context.Context) string {
	if v := ctx.Value(runIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithDataSource adds the metadata file path being read to the context.
func WithDataSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// DataSourceFromContext retrieves the metadata file path from context.
// Returns empty string if not present.
func DataSourceFromContext(ctx context.Context) string {
	if v := ctx.Value(sourceKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RunScope contains all the context data for one analysis run.
type RunScope struct {
	RequestID string
	RunID     string
	Source    string
}

// WithRunScope adds all run scope data to the context.
func WithRunScope(ctx context.Context, rs RunScope) context.Context {
	if rs.RequestID != "" {
		ctx = WithRequestID(ctx, rs.RequestID)
	}
	if rs.RunID != "" {
		ctx = WithRunID(ctx, rs.RunID)
	}
	if rs.Source != "" {
		ctx = WithDataSource(ctx, rs.Source)
	}
	return ctx
}

// RunScopeFromContext extracts all run scope data from the context.
func RunScopeFromContext(ctx context.Context) RunScope {
	return RunScope{
		RequestID: RequestIDFromContext(ctx),
		RunID:     RunIDFromContext(ctx),
		Source:    DataSourceFromContext(ctx),
	}
}
