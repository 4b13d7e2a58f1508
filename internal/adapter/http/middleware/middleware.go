package middleware

import (
	"net/http"
	"time"

	"pixbridge/internal/core/ports"
	"pixbridge/pkg/apperror"
	"pixbridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderAdminKey authenticates the operator on credential rotation.
	HeaderAdminKey = "X-Admin-Key"

	// Context keys
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// RequestID attaches a request id to every request for response envelopes
// and log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// JWTAuth validates caller JWT tokens on the deposit API.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		tokenStr := authHeader[7:]
		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Next()
	}
}

// AdminKeyAuth guards operator endpoints with the Argon2id-hashed admin key.
// An empty configured hash disables the endpoints entirely.
func AdminKeyAuth(hashSvc ports.HashService, keyHash string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderAdminKey)
		if keyHash == "" || key == "" {
			response.Error(c, apperror.ErrInvalidAdminKey())
			c.Abort()
			return
		}

		ok, err := hashSvc.Verify(key, keyHash)
		if err != nil {
			log.Error().Err(err).Msg("admin key hash is unparseable")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if !ok {
			response.Error(c, apperror.ErrInvalidAdminKey())
			c.Abort()
			return
		}
		c.Next()
	}
}

// MaxBodySize caps the request body. Gateway notifications are small; an
// oversized body is never legitimate.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
