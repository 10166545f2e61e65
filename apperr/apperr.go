// Package apperr defines the error kinds every layer of the service reports.
// Handlers map a Kind to an HTTP status; the detail is safe to show to callers
// except for KindInternal, whose detail is replaced by a generic message.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindMalformed          Kind = "MALFORMED"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindExpired            Kind = "EXPIRED"
	KindRevoked            Kind = "REVOKED"
	KindUnknownSubject     Kind = "UNKNOWN_SUBJECT"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindFulfillmentFailure Kind = "FULFILLMENT_FAILURE"
	KindUnavailable        Kind = "UNAVAILABLE"
	KindInternal           Kind = "INTERNAL"
)

// Error carries a Kind plus human-readable detail.
type Error struct {
	Kind      Kind
	Detail    string
	Retryable bool
	// ReportURL is set by the fulfillment collaborator on rejection.
	ReportURL string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, apperr.Forbidden) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Detail == "" && t.Cause == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	Malformed          = &Error{Kind: KindMalformed}
	Unauthenticated    = &Error{Kind: KindUnauthenticated}
	Expired            = &Error{Kind: KindExpired}
	Revoked            = &Error{Kind: KindRevoked}
	UnknownSubject     = &Error{Kind: KindUnknownSubject}
	Forbidden          = &Error{Kind: KindForbidden}
	NotFound           = &Error{Kind: KindNotFound}
	Conflict           = &Error{Kind: KindConflict}
	FulfillmentFailure = &Error{Kind: KindFulfillmentFailure}
	Unavailable        = &Error{Kind: KindUnavailable}
	Internal           = &Error{Kind: KindInternal}
)

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind that keeps cause for logging.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// FromContext turns a context deadline or cancellation into a retryable
// Unavailable error. Any other error is returned as Internal.
func FromContext(err error, op string) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnavailable, Detail: op + " timed out", Retryable: true, Cause: err}
	}
	return Wrap(KindInternal, err, "%s failed", op)
}

// KindOf reports the kind of err. Errors not built by this package are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
