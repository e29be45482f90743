package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"budgeteer/internal/api"
	"budgeteer/internal/auth"
	"budgeteer/internal/cli"
	apphttp "budgeteer/internal/http"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	be := cli.OpenBackend(context.Background(), logger, cfg)
	budget := be.Services(services.WithLogger(logger))

	provider := auth.NewLocalProvider(
		be.Store,
		auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL),
		auth.NewLogMailer(logger),
		strings.TrimRight(cfg.BaseURL, "/")+"/reset-password",
		auth.WithProviderLogger(logger),
	)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Config{
		Budget:      budget,
		Auth:        provider,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Budget:             budget,
		Auth:               provider,
		Logger:             logger,
		Ready:              be.Store.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      strings.HasPrefix(cfg.BaseURL, "https://"),
		API:                router,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting budgeteer server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", "requests", srv.TotalRequests())
}
