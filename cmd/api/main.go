package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/eduif/internal/auth"
	"github.com/BradenHooton/eduif/internal/background"
	"github.com/BradenHooton/eduif/internal/config"
	"github.com/BradenHooton/eduif/internal/handlers"
	middlewareCustom "github.com/BradenHooton/eduif/internal/middleware"
	"github.com/BradenHooton/eduif/internal/observability"
	"github.com/BradenHooton/eduif/internal/routes"
	"github.com/BradenHooton/eduif/internal/seed"
	"github.com/BradenHooton/eduif/internal/services"
	pkghttp "github.com/BradenHooton/eduif/pkg/http"
	"github.com/BradenHooton/eduif/pkg/vault"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("storage", cfg.Database.Driver),
	)

	if cfg.Observability.SentryDSN != "" {
		if err := observability.InitSentry(cfg.Observability.SentryDSN, cfg.Server.Env, version); err != nil {
			logger.Error("failed to initialize sentry", slog.Any("error", err))
		} else {
			defer observability.FlushSentry()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := openStorage(ctx, &cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	v, err := vault.New(cfg.Crypto.EncryptionKey)
	if err != nil {
		logger.Error("failed to initialize vault", slog.Any("error", err))
		os.Exit(1)
	}

	ipConfig, invalid := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	for _, entry := range invalid {
		logger.Warn("ignoring invalid TRUSTED_PROXIES entry", slog.String("entry", entry))
	}

	// Auth primitives
	authorizer := auth.NewAuthorizer()
	sessionManager := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	// Services
	auditService := services.NewAuditService(store.AuditLogs, logger)
	authService := services.NewAuthService(store.Accounts, auditService, sessionManager, authorizer, timingDelay, cfg.Auth.LockoutThreshold, logger)
	adminService := services.NewAdminService(store.Accounts, auditService, auditService, authorizer, logger)
	dataService := services.NewProtectedDataService(store.ProtectedData, v, auditService, authorizer, logger)

	// Seed identities and the protected payload
	plan, err := seed.BuildPlan(cfg.Seed)
	if err != nil {
		logger.Error("failed to read seed configuration", slog.Any("error", err))
		os.Exit(1)
	}
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := seed.NewSeeder(store.Accounts, dataService, logger).Run(seedCtx, plan); err != nil {
		logger.Error("failed to seed store", slog.Any("error", err))
	}
	seedCancel()

	// Handlers
	cookieConfig := auth.CookieConfig{Secure: cfg.Auth.CookieSecure, SameSite: "strict"}
	authHandler := handlers.NewAuthHandler(authService, ipConfig, cookieConfig, sessionManager.TTL())
	adminHandler := handlers.NewAdminHandler(adminService, authService, ipConfig)
	dataHandler := handlers.NewDataHandler(dataService, ipConfig)

	// Background maintenance
	cleanupManager := background.NewCleanupManager(auditService, sessionManager, background.CleanupConfig{
		AuditRetention:         cfg.Audit.Retention,
		AuditTrimInterval:      cfg.Audit.TrimInterval,
		SessionCleanupInterval: cfg.Auth.SessionCleanupInterval,
	}, logger)

	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(observability.Recoverer(logger))
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler:    authHandler,
		AdminHandler:   adminHandler,
		DataHandler:    dataHandler,
		Health:         store.Health,
		Sessions:       sessionManager,
		Authorizer:     authorizer,
		LoginRateLimit: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.LoginRateLimitPerMinute, IPConfig: ipConfig},
		APIRateLimit:   middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.APIRateLimitPerMinute, IPConfig: ipConfig},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
