package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldComponent = "component"
	FieldService   = "service"

	// HTTP
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldRemoteAddr = "remote_addr"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldTimeoutMS  = "timeout_ms"

	// Errors
	FieldError     = "error"
	FieldErrorKind = "error_kind"

	// Upstream
	FieldProvider  = "provider"
	FieldModel     = "model"
	FieldAttempt   = "attempt"
	FieldMaxTokens = "max_tokens"

	// Pipeline
	FieldState      = "state"
	FieldMode       = "mode"
	FieldMessageLen = "message_len"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"
)

type contextKey string

const requestIDKey contextKey = "logger_request_id"

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns base enriched with the request ID carried by ctx.
// A nil base falls back to the global Logger.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return base.With(FieldRequestID, id)
	}
	return base
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
