package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies evaluation failures so callers can decide whether
// to retry, switch provider, or supply their own credential without
// inspecting error internals.
type ErrorKind string

const (
	// KindInvalidRequest marks requests rejected before any network call:
	// empty question, fewer than two tools, duplicate tool names.
	// Never retried.
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindQuotaExceeded marks a provider rate or quota limit. Retryable
	// with a different credential.
	KindQuotaExceeded ErrorKind = "quota_exceeded"

	// KindAuthRejected marks an invalid or flagged credential. Not
	// retryable with the same credential.
	KindAuthRejected ErrorKind = "auth_rejected"

	// KindUnavailable marks a network or service failure, including
	// timeouts. Retryable after backoff with identical inputs.
	KindUnavailable ErrorKind = "unavailable"

	// KindMalformedResponse marks judge output that failed structural
	// validation. Not retried automatically; the raw text is kept for
	// diagnostics.
	KindMalformedResponse ErrorKind = "malformed_response"
)

// EvalError is the machine-readable error object surfaced by the
// orchestrator. Every error carries a Retryable flag so the calling layer
// can implement its own retry policy.
type EvalError struct {
	// Kind is the failure category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Raw holds the judge's unparsed reply for MalformedResponse failures.
	Raw string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *EvalError) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed on retry.
// QuotaExceeded is retryable because a different credential can unblock
// the identical request; Unavailable because the outage is transient.
func (e *EvalError) Retryable() bool {
	switch e.Kind {
	case KindQuotaExceeded, KindUnavailable:
		return true
	default:
		return false
	}
}

// NewEvalError builds an EvalError with the given classification.
func NewEvalError(kind ErrorKind, message string, err error) *EvalError {
	return &EvalError{Kind: kind, Message: message, Err: err}
}

// NewMalformedResponseError builds a MalformedResponse error that keeps
// the judge's raw reply for diagnosis.
func NewMalformedResponseError(message, raw string, err error) *EvalError {
	return &EvalError{Kind: KindMalformedResponse, Message: message, Raw: raw, Err: err}
}

// AsEvalError extracts an EvalError from an error chain. It returns the
// typed error and true when found.
func AsEvalError(err error) (*EvalError, bool) {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
