// Package errors provides error handling for the advisor gateway.
//
// This package re-exports github.com/cockroachdb/errors, so every error created
// here carries a stack trace for logs while callers only ever see the short
// public message chosen by the HTTP layer.
//
// Usage:
//
//	if err := generate(ctx); err != nil {
//	    return errors.Wrap(err, "attempt failed")
//	}
//
//	if errors.Is(err, errors.ErrTimeout) {
//	    // advance the fallback chain
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"context"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// Hints and details. Hints are safe to show operators, details stay in logs.
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
)

// Sentinel errors shared by the pipeline, the providers and the HTTP layer.
// Wrap them with Wrap or Mark to add context while keeping errors.Is working.
var (
	// ErrUnauthorized indicates the caller credential is missing or wrong
	ErrUnauthorized = New("unauthorized")

	// ErrMisconfigured indicates the server is missing required configuration
	ErrMisconfigured = New("server misconfigured")

	// ErrInvalidRequest indicates the request was malformed or failed validation
	ErrInvalidRequest = New("invalid request")

	// ErrTimeout indicates an upstream attempt ran past its deadline
	ErrTimeout = New("operation timed out")

	// ErrEmptyCompletion indicates the upstream answered with blank text
	ErrEmptyCompletion = New("empty completion")

	// ErrUpstreamExhausted indicates every entry of the fallback chain failed
	ErrUpstreamExhausted = New("upstream exhausted")

	// ErrInternal indicates an unexpected fault inside the gateway
	ErrInternal = New("internal error")
)

// IsTimeout reports whether err is a deadline expiry, either our own sentinel
// or a context deadline surfaced by net/http or an SDK.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrTimeout) || Is(err, context.DeadlineExceeded)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}

// WrapTimeout marks err as a timeout while keeping its message and cause chain.
func WrapTimeout(err error, msg string) error {
	return Mark(Wrap(err, msg), ErrTimeout)
}
