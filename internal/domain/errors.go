package domain

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies a failure so callers can decide how to surface it
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindInvalidState Kind = "INVALID_STATE"
	KindForbidden    Kind = "FORBIDDEN"
	KindInvalidInput Kind = "INVALID_INPUT"
	KindUnavailable  Kind = "STORE_UNAVAILABLE"
	KindInconsistent Kind = "INCONSISTENT"
	KindInternal     Kind = "INTERNAL"
)

// Error is the canonical failure returned by the marketplace workflows
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack captured when the error was created
func (e *Error) StackTrace() []byte {
	return e.Stack
}

// NewError creates an Error of the given kind, capturing a stack trace
func NewError(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string, err error) *Error {
	return NewError(KindNotFound, message, err)
}

func InvalidState(message string, err error) *Error {
	return NewError(KindInvalidState, message, err)
}

func InvalidInput(message string, err error) *Error {
	return NewError(KindInvalidInput, message, err)
}

func Unavailable(message string, err error) *Error {
	return NewError(KindUnavailable, message, err)
}

func Internal(message string, err error) *Error {
	return NewError(KindInternal, message, err)
}

// TrustGateError explains why a worker was refused a job
type TrustGateError struct {
	Required int
	Actual   int
}

func (e *TrustGateError) Error() string {
	return fmt.Sprintf("trust score %d below required %d", e.Actual, e.Required)
}

// Forbidden creates a trust-gate rejection carrying both scores
func Forbidden(required, actual int) *Error {
	return NewError(KindForbidden, "trust score too low for this job", &TrustGateError{
		Required: required,
		Actual:   actual,
	})
}

// InconsistencyError names a job that was assigned without a persisted policy
type InconsistencyError struct {
	JobID    string
	WorkerID string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("job %s assigned to %s without a safety policy", e.JobID, e.WorkerID)
}

// Inconsistent reports an assignment whose policy could not be persisted
func Inconsistent(jobID, workerID string, cause error) *Error {
	return NewError(KindInconsistent, "job assigned but safety policy not persisted",
		errors.Join(&InconsistencyError{JobID: jobID, WorkerID: workerID}, cause))
}

// KindOf returns the Kind of err, or KindInternal for errors that carry none
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a domain Error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
