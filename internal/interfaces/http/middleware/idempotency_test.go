package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/treasury/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Release(context.Context, string) error            { return nil }
func (failingStore) Close() error                                     { return nil }

func newIdempotentRouter(t *testing.T, cfg IdempotencyConfig, status *atomic.Int32) (*gin.Engine, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	router := gin.New()
	router.Use(RequestID(), Idempotency(cfg))
	router.POST("/checks/:id/deposit", func(c *gin.Context) {
		calls.Add(1)
		c.Status(int(status.Load()))
	})
	router.GET("/checks/:id", func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusOK)
	})
	return router, &calls
}

func postWithKey(router *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	var status atomic.Int32
	status.Store(http.StatusOK)
	router, calls := newIdempotentRouter(t, IdempotencyConfig{Store: store, TTL: time.Hour}, &status)

	t.Run("first request runs, repeat is rejected", func(t *testing.T) {
		w := postWithKey(router, "/checks/1/deposit", "k-1")
		assert.Equal(t, http.StatusOK, w.Code)

		w = postWithKey(router, "/checks/1/deposit", "k-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"DUPLICATE_REQUEST"`)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("same key on another path is independent", func(t *testing.T) {
		before := calls.Load()
		w := postWithKey(router, "/checks/2/deposit", "k-1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, before+1, calls.Load())
	})

	t.Run("failed requests release the key", func(t *testing.T) {
		status.Store(http.StatusServiceUnavailable)
		w := postWithKey(router, "/checks/3/deposit", "retry-me")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		status.Store(http.StatusOK)
		w = postWithKey(router, "/checks/3/deposit", "retry-me")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("requests without a key are not tracked", func(t *testing.T) {
		before := calls.Load()
		postWithKey(router, "/checks/4/deposit", "")
		postWithKey(router, "/checks/4/deposit", "")
		assert.Equal(t, before+2, calls.Load())
	})

	t.Run("reads ignore the header", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/checks/1", nil)
			req.Header.Set(IdempotencyKeyHeader, "read")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("oversized key", func(t *testing.T) {
		w := postWithKey(router, "/checks/5/deposit", strings.Repeat("k", MaxIdempotencyKeyLength+1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"VALIDATION_ERROR"`)
	})
}

func TestIdempotency_StoreFailureFailsOpen(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	router, calls := newIdempotentRouter(t, IdempotencyConfig{Store: failingStore{}}, &status)

	w := postWithKey(router, "/checks/1/deposit", "k")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), calls.Load())
}
