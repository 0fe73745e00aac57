package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soltixdb/insights/internal/alerts"
	"github.com/soltixdb/insights/internal/config"
	"github.com/soltixdb/insights/internal/handlers"
	"github.com/soltixdb/insights/internal/logging"
	"github.com/soltixdb/insights/internal/metrics"
	"github.com/soltixdb/insights/internal/router"
	"github.com/soltixdb/insights/internal/services"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Insights service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)
	handlers.Version = Version

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.Namespace)
		logger.Info("Prometheus metrics enabled", "path", cfg.Metrics.Path)
	}

	// Alerts are optional; a nil notifier disables publishing
	var notifier services.AlertNotifier
	if cfg.Alerts.Enabled {
		logger.Info("Connecting to alert queue", "type", cfg.Alerts.Type, "url", cfg.Alerts.URL)
		n, err := alerts.NewNotifierFromConfig(cfg.Alerts, logger)
		if err != nil {
			logger.Fatal("Failed to connect to alert queue", "error", err)
		}
		defer func() { _ = n.Close() }()
		notifier = n
		logger.Info("Alert queue connection established", "subject", cfg.Alerts.Subject)
	}

	switch cfg.Auth.Mode {
	case config.AuthModeAPIKey:
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	case config.AuthModeJWT:
		logger.Info("JWT authentication enabled", "issuer", cfg.Auth.JWTIssuer)
	default:
		logger.Warn("Authentication DISABLED - all requests will be allowed")
	}

	service := services.NewAnalyticsService(logger, cfg.Analytics, notifier, collector)
	app := router.New(logger, service, collector, *cfg)

	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
