package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxIdempotencyKeyLength bounds the Idempotency-Key header
const MaxIdempotencyKeyLength = 255

// IdempotencyConfig configures replay protection
type IdempotencyConfig struct {
	Store shared.IdempotencyStore
	TTL   time.Duration
}

// Idempotency rejects a repeated mutating request carrying an
// Idempotency-Key that was already accepted. The key is claimed before the
// handler runs and released when the handler fails, so a failed attempt can
// be retried with the same key. Requests without the header pass through.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		if cfg.Store == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewDomainErrorResponse(
				shared.NewValidationError(IdempotencyKeyHeader, "Idempotency-Key is too long"),
				GetRequestID(c),
			))
			return
		}

		ctx := c.Request.Context()
		scoped := scopedIdempotencyKey(c, key)
		isNew, err := cfg.Store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			logger.L(ctx).Warn("Idempotency store unavailable, processing without replay protection", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewDomainErrorResponse(
				shared.NewConflictError(dto.ReasonDuplicateRequest,
					"A request with this Idempotency-Key was already processed",
					map[string]any{"idempotency_key": key}),
				GetRequestID(c),
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			// The request context may already be cancelled
			if err := cfg.Store.Release(context.WithoutCancel(ctx), scoped); err != nil {
				logger.L(ctx).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// scopedIdempotencyKey ties a client key to the caller and the target so two
// users, or two endpoints, never collide on the same key
func scopedIdempotencyKey(c *gin.Context, key string) string {
	actor := "anonymous"
	if a := GetActor(c); a != nil {
		actor = a.UserID.String()
	}
	return actor + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}
