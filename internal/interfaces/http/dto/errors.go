package dto

import (
	"net/http"

	"github.com/erp/treasury/internal/domain/shared"
)

// Transport-level error codes. Domain failures use the shared.Code* values.
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
)

// Conflict reasons produced by the HTTP layer
const (
	ReasonDuplicateRequest = "DUPLICATE_REQUEST"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:             http.StatusBadRequest,
	shared.CodeInvalidStateTransition: http.StatusUnprocessableEntity,
	shared.CodeConflict:               http.StatusConflict,
	shared.CodeDependencyBlocked:      http.StatusConflict,
	shared.CodeLockTimeout:            http.StatusServiceUnavailable,
	shared.CodeNotFound:               http.StatusNotFound,
	shared.CodeUnexpected:             http.StatusInternalServerError,

	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:   http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RetryAfterSeconds is the Retry-After value sent with retryable errors
const RetryAfterSeconds = "1"
