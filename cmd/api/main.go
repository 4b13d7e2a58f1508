package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixbridge/config"
	"pixbridge/internal/adapter/gateway"
	httpHandler "pixbridge/internal/adapter/http/handler"
	pgStorage "pixbridge/internal/adapter/storage/postgres"
	redisStorage "pixbridge/internal/adapter/storage/redis"
	"pixbridge/internal/core/ports"
	"pixbridge/internal/service"
	"pixbridge/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting PixBridge")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	settingsRepo := pgStorage.NewSettingsRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	eventRepo := pgStorage.NewWebhookEventRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	dedupCache := redisStorage.NewDedupCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize gateway adapter. Credentials are resolved from the settings
	// table on every call, so operator rotation takes effect without restart.
	credStore := gateway.NewCredentialStore(settingsRepo, cfg.Gateway)
	tokenMgr := gateway.NewTokenManager(credStore, &http.Client{Timeout: 10 * time.Second}, log)
	gatewayClient := gateway.NewClient(credStore, tokenMgr, &http.Client{Timeout: 30 * time.Second}, log)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	normalizer := service.NewNormalizer(sigSvc, cfg.Gateway.WebhookSecret, log)
	reconciler := service.NewReconciler(normalizer, txRepo, walletRepo, eventRepo, transactor, dedupCache, log)
	depositor := service.NewDepositor(gatewayClient, txRepo, cfg.Gateway.CallbackURL, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ReconcileSvc:   reconciler,
		DepositSvc:     depositor,
		TokenSvc:       tokenSvc,
		HashSvc:        hashSvc,
		SettingsRepo:   settingsRepo,
		GatewayTokens:  tokenMgr,
		AdminKeyHash:   cfg.Admin.KeyHash,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
