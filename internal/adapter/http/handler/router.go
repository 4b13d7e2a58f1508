package handler

import (
	"pixbridge/internal/adapter/http/middleware"
	redisStore "pixbridge/internal/adapter/storage/redis"
	"pixbridge/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ReconcileSvc   ports.ReconcileService
	DepositSvc     ports.DepositService
	TokenSvc       ports.TokenService
	HashSvc        ports.HashService
	SettingsRepo   ports.SettingsRepository
	GatewayTokens  ports.TokenProvider
	AdminKeyHash   string                     // "" = admin endpoints disabled
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// --- Gateway notifications (no auth, no rate limiting) ---
	// The gateway authenticates by HMAC signature inside the payload path;
	// throttling here would only delay credits on its retries.
	webhookHandler := NewWebhookHandler(deps.ReconcileSvc, deps.Logger)
	r.POST("/webhooks/pix", webhookHandler.Receive)

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- JWT-authenticated routes (platform callers) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	depositHandler := NewDepositHandler(deps.DepositSvc)
	deposits := v1.Group("/deposits", jwtAuth)
	{
		deposits.POST("", rl("deposits"), depositHandler.Create)
		deposits.GET("/:id", rl("deposits_status"), depositHandler.Get)
	}

	// --- Operator routes (admin key) ---
	if deps.AdminKeyHash != "" {
		adminAuth := middleware.AdminKeyAuth(deps.HashSvc, deps.AdminKeyHash, deps.Logger)
		adminHandler := NewAdminHandler(deps.SettingsRepo, deps.GatewayTokens, deps.Logger)
		admin := v1.Group("/admin", adminAuth)
		{
			admin.PUT("/gateway-credentials", adminHandler.UpdateCredentials)
		}
	}

	return r
}
