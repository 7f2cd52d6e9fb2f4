package common

import (
	"context"
	"time"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyUserID    ContextKey = "user_id"
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyTraceID   ContextKey = "trace_id"
	ContextKeyStartTime ContextKey = "start_time"
)

// WithUserID adds user ID to context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	return userID, ok
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}

// WithTraceID adds trace ID to context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextKeyTraceID, traceID)
}

// GetTraceID extracts trace ID from context
func GetTraceID(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(ContextKeyTraceID).(string)
	return traceID, ok
}

// WithStartTime adds start time to context
func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyStartTime, startTime)
}

// GetStartTime extracts start time from context
func GetStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(ContextKeyStartTime).(time.Time)
	return startTime, ok
}

// GetElapsedTime calculates elapsed time from start time in context
func GetElapsedTime(ctx context.Context) time.Duration {
	if startTime, ok := GetStartTime(ctx); ok {
		return time.Since(startTime)
	}
	return 0
}

// EnrichContext adds common metadata to context
func EnrichContext(ctx context.Context, userID, requestID string) context.Context {
	ctx = WithUserID(ctx, userID)
	ctx = WithRequestID(ctx, requestID)
	ctx = WithStartTime(ctx, time.Now())
	return ctx
}
