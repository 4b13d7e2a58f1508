package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pixbridge/internal/adapter/http/middleware"
	redisStore "pixbridge/internal/adapter/storage/redis"
	"pixbridge/internal/core/ports"
	"pixbridge/internal/core/ports/mocks"
	"pixbridge/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newAuthRouter(tokenSvc ports.TokenService) *gin.Engine {
	r := gin.New()
	r.GET("/protected", middleware.JWTAuth(tokenSvc, testLogger()), func(c *gin.Context) {
		userID, _ := c.Get(middleware.CtxUserID)
		email, _ := c.Get(middleware.CtxEmail)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "email": email})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	tokenSvc := service.NewJWTTokenService("test-secret", time.Hour, "pixbridge")
	r := newAuthRouter(tokenSvc)

	t.Run("valid token passes claims through", func(t *testing.T) {
		token, _, err := tokenSvc.Generate(7, "user@example.com")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":7`)
		assert.Contains(t, w.Body.String(), "user@example.com")
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminKeyAuth(t *testing.T) {
	hashSvc := service.NewArgon2HashService()
	keyHash, err := hashSvc.Hash("super-secret-admin-key")
	require.NoError(t, err)

	newRouter := func(hash string) *gin.Engine {
		r := gin.New()
		r.PUT("/admin", middleware.AdminKeyAuth(hashSvc, hash, testLogger()), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	t.Run("correct key passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin", nil)
		req.Header.Set(middleware.HeaderAdminKey, "super-secret-admin-key")
		newRouter(keyHash).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin", nil)
		req.Header.Set(middleware.HeaderAdminKey, "guess")
		newRouter(keyHash).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing key is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(keyHash).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty configured hash disables endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin", nil)
		req.Header.Set(middleware.HeaderAdminKey, "super-secret-admin-key")
		newRouter("").ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unparseable stored hash is a server error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		broken := mocks.NewMockHashService(ctrl)
		broken.EXPECT().Verify("key", "not-a-hash").Return(false, errors.New("invalid hash format"))

		r := gin.New()
		r.PUT("/admin", middleware.AdminKeyAuth(broken, "not-a-hash", testLogger()), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin", nil)
		req.Header.Set(middleware.HeaderAdminKey, "key")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	store := redisStore.NewRateLimitStore(client)

	rule := middleware.RateLimitRule{Limit: 2, Window: time.Minute}
	r := gin.New()
	r.POST("/limited", middleware.RateLimiter(store, "test", rule, testLogger()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("allows within limit and sets headers", func(t *testing.T) {
		w := hit()
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, http.StatusOK, hit().Code)
	})

	t.Run("blocks over limit", func(t *testing.T) {
		w := hit()
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("window reset allows again", func(t *testing.T) {
		s.FastForward(61 * time.Second)
		assert.Equal(t, http.StatusOK, hit().Code)
	})
}
