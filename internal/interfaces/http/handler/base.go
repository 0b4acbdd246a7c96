package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/erp/treasury/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// dateLayout is the calendar date format accepted next to RFC 3339
const dateLayout = "2006-01-02"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Page sends a page of items with pagination meta
func Page[T any](c *gin.Context, page *shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(*page))
}

// HandleError converts err into the error envelope. Retryable errors carry
// Retry-After; unclassified errors are logged and reported as UNEXPECTED.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		logger.L(c.Request.Context()).Error("Unclassified error reached the HTTP layer",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		domainErr = shared.NewUnexpectedError(err)
	}

	if domainErr.Retryable {
		c.Header("Retry-After", dto.RetryAfterSeconds)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(dto.GetHTTPStatus(domainErr.Code), dto.NewDomainErrorResponse(domainErr, requestID))
}

// bindJSON binds the body and answers 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bindJSON(c, req)
}

// bindQuery binds query parameters and answers 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathID parses a uuid path parameter and answers 400 when malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.HandleError(c, shared.NewValidationError(name, "Invalid UUID format"))
		return uuid.Nil, false
	}
	return id, true
}

// queryBool reads a boolean query flag, false when absent
func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, shared.NewValidationError(name, "Must be true or false")
	}
	return v, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields nil.
func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, shared.NewValidationError(field, "Must be a date formatted as YYYY-MM-DD")
	}
	t = t.UTC()
	return &t, nil
}

// dateOrZero is parseDate for fields where a missing date means today
func dateOrZero(field, raw string) (time.Time, error) {
	t, err := parseDate(field, raw)
	if err != nil || t == nil {
		return time.Time{}, err
	}
	return *t, nil
}

// parseOptionalID parses an optional uuid body field
func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError(field, "Invalid UUID format")
	}
	return &id, nil
}

// actor returns the authenticated caller, nil when anonymous
func actor(c *gin.Context) *shared.Actor {
	return middleware.GetActor(c)
}

// invalidEnum reports a query value outside its enumeration
func invalidEnum(field, value string) error {
	return shared.NewValidationError(field, "Unknown value "+strconv.Quote(value))
}
