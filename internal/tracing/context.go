package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// ExecutionIDKey is the context key for a command execution
	ExecutionIDKey ContextKey = "execution_id"
	// SessionIDKey is the context key for the rule session id
	SessionIDKey ContextKey = "session_id"
	// ParentExecutionIDKey is the context key for the enclosing execution
	ParentExecutionIDKey ContextKey = "parent_execution_id"
)

// TraceContext holds tracing information
type TraceContext struct {
	TraceID           string
	ExecutionID       string
	SessionID         string
	ParentExecutionID string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewExecutionID generates a new execution ID
func NewExecutionID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithExecutionID adds an execution ID to the context
func WithExecutionID(ctx context.Context, executionID string) context.Context {
	return context.WithValue(ctx, ExecutionIDKey, executionID)
}

// WithSessionID adds a session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithParentExecutionID records the enclosing execution
func WithParentExecutionID(ctx context.Context, executionID string) context.Context {
	return context.WithValue(ctx, ParentExecutionIDKey, executionID)
}

func stringValue(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string { return stringValue(ctx, TraceIDKey) }

// GetExecutionID retrieves the execution ID from the context
func GetExecutionID(ctx context.Context) string { return stringValue(ctx, ExecutionIDKey) }

// GetSessionID retrieves the session ID from the context
func GetSessionID(ctx context.Context) string { return stringValue(ctx, SessionIDKey) }

// GetParentExecutionID retrieves the enclosing execution ID from the context
func GetParentExecutionID(ctx context.Context) string {
	return stringValue(ctx, ParentExecutionIDKey)
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:           GetTraceID(ctx),
		ExecutionID:       GetExecutionID(ctx),
		SessionID:         GetSessionID(ctx),
		ParentExecutionID: GetParentExecutionID(ctx),
	}
}

// NewExecutionContext starts a command execution for a session. An existing
// execution in ctx becomes the parent; the trace ID is kept or created.
func NewExecutionContext(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if GetTraceID(ctx) == "" {
		ctx = WithTraceID(ctx, NewTraceID())
	}
	if parent := GetExecutionID(ctx); parent != "" {
		ctx = WithParentExecutionID(ctx, parent)
	}
	ctx = WithExecutionID(ctx, NewExecutionID())
	return WithSessionID(ctx, sessionID)
}

// LoggerFromContext returns logger with the tracing values of ctx as fields.
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)
	lc := logger.With()
	if tc.TraceID != "" {
		lc = lc.Str("trace_id", tc.TraceID)
	}
	if tc.ExecutionID != "" {
		lc = lc.Str("execution_id", tc.ExecutionID)
	}
	if tc.ParentExecutionID != "" {
		lc = lc.Str("parent_execution_id", tc.ParentExecutionID)
	}
	if tc.SessionID != "" {
		lc = lc.Str("session_id", tc.SessionID)
	}
	return lc.Logger()
}
