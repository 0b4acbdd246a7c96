package shared

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Every failure leaving the application layer
// carries exactly one of these.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeConflict               = "CONFLICT"
	CodeDependencyBlocked      = "DEPENDENCY_BLOCKED"
	CodeLockTimeout            = "LOCK_TIMEOUT"
	CodeNotFound               = "NOT_FOUND"
	CodeUnexpected             = "UNEXPECTED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	Err       error          `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so sentinel comparisons work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	cp := *e
	cp.Details = details
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or missing input on a single field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: message,
		Details: map[string]any{"field": field},
	}
}

// NewInvalidTransitionError reports a guard failure on a state machine.
func NewInvalidTransitionError(current, requested string, allowedFrom []string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidStateTransition,
		Message: fmt.Sprintf("Cannot %s a check in %s state", requested, current),
		Details: map[string]any{
			"current_state":        current,
			"requested_transition": requested,
			"allowed_from":         allowedFrom,
		},
	}
}

// NewConflictError reports a uniqueness violation or a competing write.
func NewConflictError(reason, message string, details map[string]any) *DomainError {
	d := map[string]any{"reason": reason}
	for k, v := range details {
		d[k] = v
	}
	return &DomainError{
		Code:    CodeConflict,
		Message: message,
		Details: d,
	}
}

// NewDependencyBlockedError reports a delete blocked by dependents that the
// caller may override by repeating the request with force=true.
func NewDependencyBlockedError(message string, details map[string]any) *DomainError {
	d := map[string]any{"force_hint": "repeat the request with force=true to void instead of delete"}
	for k, v := range details {
		d[k] = v
	}
	return &DomainError{
		Code:    CodeDependencyBlocked,
		Message: message,
		Details: d,
	}
}

// NewLockTimeoutError wraps a lock-wait timeout from the storage layer.
func NewLockTimeoutError(cause error) *DomainError {
	return &DomainError{
		Code:      CodeLockTimeout,
		Message:   "The resource is locked by another operation, retry the request",
		Retryable: true,
		Err:       cause,
	}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity string, id any) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]any{"entity": entity, "id": fmt.Sprint(id)},
	}
}

// NewUnexpectedError hides an unclassified failure behind a generic message.
func NewUnexpectedError(cause error) *DomainError {
	return &DomainError{
		Code:    CodeUnexpected,
		Message: "An unexpected error occurred",
		Err:     cause,
	}
}

// Sentinels for errors.Is checks
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation             = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "Operation not allowed in current state")
	ErrConflict               = NewDomainError(CodeConflict, "Resource conflicts with existing data")
	ErrDependencyBlocked      = NewDomainError(CodeDependencyBlocked, "Resource has dependents")
	ErrLockTimeout            = NewDomainError(CodeLockTimeout, "Lock wait timeout")
	ErrUnexpected             = NewDomainError(CodeUnexpected, "An unexpected error occurred")
)

// AsDomainError classifies err, wrapping anything unknown as UNEXPECTED.
func AsDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return NewUnexpectedError(err)
}

// IsRetryable reports whether the caller should retry the whole operation.
func IsRetryable(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Retryable
}
