package order

import (
	"errors"
	"fmt"
)

// FailureKind classifies execution failures so retry and finalization logic
// can branch on kind instead of message text.
type FailureKind int

const (
	FailureInternal FailureKind = iota
	FailureAdmissionRejected
	FailureOrderNotFound
	FailureQuote
	FailureSwap
)

func (k FailureKind) String() string {
	switch k {
	case FailureAdmissionRejected:
		return "admission_rejected"
	case FailureOrderNotFound:
		return "order_not_found"
	case FailureQuote:
		return "quote_failure"
	case FailureSwap:
		return "swap_failure"
	default:
		return "internal"
	}
}

// ExecutionError is a pipeline failure tagged with its kind.
type ExecutionError struct {
	Kind FailureKind
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func quoteFailure(err error) *ExecutionError {
	return &ExecutionError{Kind: FailureQuote, Err: err}
}

func swapFailure(err error) *ExecutionError {
	return &ExecutionError{Kind: FailureSwap, Err: err}
}

func internalFailure(err error) *ExecutionError {
	return &ExecutionError{Kind: FailureInternal, Err: err}
}

// KindOf extracts the failure kind from an error chain; unclassified errors
// report FailureInternal.
func KindOf(err error) FailureKind {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return FailureInternal
}
