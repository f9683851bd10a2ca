package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

type failingStore struct{}

func (failingStore) Reserve(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingStore) Release(context.Context, string) error        { return nil }
func (failingStore) Exists(context.Context, string) (bool, error) { return false, nil }

func idempotentRouter(store cache.IdempotencyStore, status *int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/orders", func(c *gin.Context) {
		c.Set(JWTUserIDKey, c.GetHeader("X-User"))
		c.Next()
	}, Idempotency(store, time.Hour, nil), func(c *gin.Context) {
		*calls++
		c.Status(*status)
	})
	return router
}

func postOrder(router *gin.Engine, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("X-User", user)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("replayed key is rejected", func(t *testing.T) {
		status, calls := http.StatusCreated, 0
		router := idempotentRouter(cache.NewInMemoryIdempotencyStore(), &status, &calls)

		assert.Equal(t, http.StatusCreated, postOrder(router, "u1", "abc").Code)
		w := postOrder(router, "u1", "abc")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeDuplicateRequest)
		assert.Equal(t, 1, calls)
	})

	t.Run("keys are scoped per user", func(t *testing.T) {
		status, calls := http.StatusCreated, 0
		router := idempotentRouter(cache.NewInMemoryIdempotencyStore(), &status, &calls)

		assert.Equal(t, http.StatusCreated, postOrder(router, "u1", "abc").Code)
		assert.Equal(t, http.StatusCreated, postOrder(router, "u2", "abc").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("failed request releases its key", func(t *testing.T) {
		status, calls := http.StatusConflict, 0
		router := idempotentRouter(cache.NewInMemoryIdempotencyStore(), &status, &calls)

		assert.Equal(t, http.StatusConflict, postOrder(router, "u1", "retry-me").Code)
		status = http.StatusCreated
		assert.Equal(t, http.StatusCreated, postOrder(router, "u1", "retry-me").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("requests without key are not tracked", func(t *testing.T) {
		status, calls := http.StatusCreated, 0
		store := cache.NewInMemoryIdempotencyStore()
		router := idempotentRouter(store, &status, &calls)

		postOrder(router, "u1", "")
		postOrder(router, "u1", "")
		assert.Equal(t, 2, calls)
		assert.Zero(t, store.Size())
	})

	t.Run("overlong key is rejected", func(t *testing.T) {
		status, calls := http.StatusCreated, 0
		router := idempotentRouter(cache.NewInMemoryIdempotencyStore(), &status, &calls)

		w := postOrder(router, "u1", strings.Repeat("k", 129))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, calls)
	})

	t.Run("store outage lets the request through", func(t *testing.T) {
		status, calls := http.StatusCreated, 0
		router := idempotentRouter(failingStore{}, &status, &calls)

		assert.Equal(t, http.StatusCreated, postOrder(router, "u1", "abc").Code)
		assert.Equal(t, http.StatusCreated, postOrder(router, "u1", "abc").Code)
		assert.Equal(t, 2, calls)
	})
}
