package advisor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/horasecreta/advisor/errors"
)

// Default message bounds, in characters after trimming
const (
	DefaultMinMessageChars = 5
	DefaultMaxMessageChars = 2000
)

// ValidationKind says which message constraint failed
type ValidationKind string

const (
	ValidationEmpty    ValidationKind = "empty"
	ValidationTooShort ValidationKind = "too_short"
	ValidationTooLong  ValidationKind = "too_long"
)

// ValidationError is returned by Validate. It matches errors.ErrInvalidRequest.
type ValidationError struct {
	Kind   ValidationKind
	Length int
	Limit  int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationEmpty:
		return "message is empty"
	case ValidationTooShort:
		return fmt.Sprintf("message has %d characters, minimum is %d", e.Length, e.Limit)
	default:
		return fmt.Sprintf("message has %d characters, maximum is %d", e.Length, e.Limit)
	}
}

// Is lets errors.Is(err, errors.ErrInvalidRequest) match
func (e *ValidationError) Is(target error) bool {
	return target == errors.ErrInvalidRequest
}

// PublicMessage is the caller-facing text for the failure
func (e *ValidationError) PublicMessage() string {
	switch e.Kind {
	case ValidationEmpty:
		return MsgEmpty
	case ValidationTooShort:
		return MsgTooShort
	default:
		return MsgTooLong
	}
}

// Validator enforces message bounds
type Validator struct {
	MinChars int
	MaxChars int
}

// NewValidator returns a validator; non-positive bounds take the defaults
func NewValidator(minChars, maxChars int) Validator {
	if minChars <= 0 {
		minChars = DefaultMinMessageChars
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxMessageChars
	}
	return Validator{MinChars: minChars, MaxChars: maxChars}
}

// Validate normalizes raw with the default bounds
func Validate(raw RawRequest) (AdvisorRequest, error) {
	return NewValidator(0, 0).Validate(raw)
}

// Validate trims the message and checks its length in characters. The mode
// is normalized and never rejected.
func (v Validator) Validate(raw RawRequest) (AdvisorRequest, error) {
	msg := strings.TrimSpace(raw.Message)
	n := utf8.RuneCountInString(msg)

	switch {
	case n == 0:
		return AdvisorRequest{}, &ValidationError{Kind: ValidationEmpty, Limit: v.MinChars}
	case n < v.MinChars:
		return AdvisorRequest{}, &ValidationError{Kind: ValidationTooShort, Length: n, Limit: v.MinChars}
	case n > v.MaxChars:
		return AdvisorRequest{}, &ValidationError{Kind: ValidationTooLong, Length: n, Limit: v.MaxChars}
	}

	return AdvisorRequest{Message: msg, Mode: ParseMode(raw.Mode)}, nil
}
