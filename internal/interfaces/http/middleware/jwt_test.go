package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/auth"
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "erp-backend"})
}

type stubRevocations struct {
	revokedJTI  bool
	invalidated bool
	err         error
}

func (s stubRevocations) IsRevoked(context.Context, string) (bool, error) {
	return s.revokedJTI, s.err
}

func (s stubRevocations) IsUserTokenInvalidated(context.Context, string, time.Time) (bool, error) {
	return s.invalidated, s.err
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/whoami", func(c *gin.Context) {
		ctxActor := logger.ActorFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"actor":     GetActor(c).Name(),
			"ctx_actor": ctxActor.Name(),
		})
	})
	return router
}

func doWhoAmI(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()
	actor := shared.Actor{UserID: uuid.New(), Username: "treasurer"}
	token, err := svc.SignAccessToken(actor, time.Hour)
	require.NoError(t, err)

	t.Run("valid token sets the actor", func(t *testing.T) {
		w := doWhoAmI(newJWTRouter(JWTMiddlewareConfig{JWTService: svc, Required: true}), BearerPrefix+token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"actor":"treasurer","ctx_actor":"treasurer"}`, w.Body.String())
	})

	t.Run("missing header when required", func(t *testing.T) {
		w := doWhoAmI(newJWTRouter(JWTMiddlewareConfig{JWTService: svc, Required: true}), "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)
		assert.Contains(t, w.Body.String(), `"request_id"`)
	})

	t.Run("missing header when optional runs as system", func(t *testing.T) {
		w := doWhoAmI(newJWTRouter(JWTMiddlewareConfig{JWTService: svc}), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"actor":"system","ctx_actor":"system"}`, w.Body.String())
	})

	t.Run("malformed header is rejected even when optional", func(t *testing.T) {
		w := doWhoAmI(newJWTRouter(JWTMiddlewareConfig{JWTService: svc}), "Token "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := svc.SignAccessToken(actor, -time.Minute)
		require.NoError(t, err)

		w := doWhoAmI(newJWTRouter(JWTMiddlewareConfig{JWTService: svc, Required: true}), BearerPrefix+expired)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"TOKEN_EXPIRED"`)
	})

	t.Run("revoked token", func(t *testing.T) {
		cfg := JWTMiddlewareConfig{JWTService: svc, Required: true, Revocations: stubRevocations{revokedJTI: true}}
		w := doWhoAmI(newJWTRouter(cfg), BearerPrefix+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"TOKEN_REVOKED"`)
	})

	t.Run("invalidated user", func(t *testing.T) {
		cfg := JWTMiddlewareConfig{JWTService: svc, Required: true, Revocations: stubRevocations{invalidated: true}}
		w := doWhoAmI(newJWTRouter(cfg), BearerPrefix+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revocation lookup failure fails open", func(t *testing.T) {
		cfg := JWTMiddlewareConfig{JWTService: svc, Required: true, Revocations: stubRevocations{err: errors.New("redis down")}}
		w := doWhoAmI(newJWTRouter(cfg), BearerPrefix+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("skip paths bypass auth", func(t *testing.T) {
		cfg := JWTMiddlewareConfig{JWTService: svc, Required: true, SkipPaths: []string{"/whoami"}}
		w := doWhoAmI(newJWTRouter(cfg), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
