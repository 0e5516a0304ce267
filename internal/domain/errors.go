package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed gateway call.
type ErrorKind string

const (
	KindAuth              ErrorKind = "AUTH"
	KindValidation        ErrorKind = "VALIDATION"
	KindRateLimit         ErrorKind = "RATE_LIMIT"
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	KindSymbolNotFound    ErrorKind = "SYMBOL_NOT_FOUND"
	KindOrderNotFound     ErrorKind = "ORDER_NOT_FOUND"
	KindTransport         ErrorKind = "TRANSPORT"
	KindVenueRejected     ErrorKind = "VENUE_REJECTED"
	KindUnknown           ErrorKind = "UNKNOWN"
)

// Retryable reports whether a caller may retry a read-only call.
// Order-mutating calls must never be retried on these kinds either,
// since the venue may have accepted the original submission.
func (k ErrorKind) Retryable() bool {
	return k == KindTransport || k == KindRateLimit
}

// Error is the canonical failure produced at the gateway boundary.
// Only the gateway constructs it, so the taxonomy has a single mapping
// point; adapters hand back a Classification instead.
type Error struct {
	Kind      ErrorKind
	VenueCode string // original venue code, preserved for diagnostics
	Message   string
	Err       error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.VenueCode != "" {
		return fmt.Sprintf("%s (venue code %s): %s", e.Kind, e.VenueCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can test errors.Is(err, &Error{Kind: ...}).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf extracts the kind from any error chain, KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Classification is the venue adapter's verdict on an error payload.
// It carries no error identity of its own; the gateway turns it into
// an *Error.
type Classification struct {
	Kind      ErrorKind
	VenueCode string
	Message   string
}
