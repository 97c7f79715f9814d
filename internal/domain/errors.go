package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoContent indicates the provider returned no usable text (empty or
// filtered response). Treated as transient and retried.
var ErrNoContent = errors.New("no message content found in provider response")

// ErrorKind labels the concrete failure category a provider reported.
type ErrorKind string

const (
	KindAuth             ErrorKind = "auth"
	KindMalformedRequest ErrorKind = "malformed_request"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindNotFound         ErrorKind = "not_found"
	KindRateLimited      ErrorKind = "rate_limited"
	KindTransport        ErrorKind = "transport"
	KindUnknown          ErrorKind = "unknown"
)

// ValidationError reports an out-of-range or malformed request parameter.
// It is raised locally, before any network call, and surfaces immediately.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError is the normalized form of an upstream failure. Providers map
// SDK and transport errors into this shape so the classifier can operate on
// a single type.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Kind       ErrorKind
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FatalReason says why a request chain was deemed fatal.
type FatalReason string

const (
	// FatalUnresolvable marks an error no retry can fix.
	FatalUnresolvable FatalReason = "unresolvable"

	// FatalExhausted marks a chain that used up its retry budget.
	FatalExhausted FatalReason = "exhausted"
)

// FatalError is the terminal result of a request chain. The engine never
// terminates the process itself; it propagates a FatalError and the
// top-level driver alone notifies the operator and exits non-zero.
type FatalError struct {
	Reason     FatalReason
	Cause      error
	Diagnostic string
	Attempts   int
	Timestamp  time.Time
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal (%s) after %d attempts: %v", e.Reason, e.Attempts, e.Cause)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
