package handler

import "github.com/erp/treasury/internal/interfaces/http/dto"

// APIResponse is dto.Response with a typed payload. Handlers write
// dto.Response; clients and the API docs read it back as APIResponse.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the body of every failed treasury request
type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	// Error.Code is one of VALIDATION_ERROR, INVALID_STATE_TRANSITION,
	// CONFLICT, DEPENDENCY_BLOCKED, LOCK_TIMEOUT, NOT_FOUND, UNEXPECTED
	Error *dto.ErrorInfo `json:"error"`
}
