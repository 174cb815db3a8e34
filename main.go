package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalFlipBot/config"
	"signalFlipBot/internal/adapters/httpapi"
	"signalFlipBot/internal/adapters/logger"
	"signalFlipBot/internal/adapters/metrics"
	"signalFlipBot/internal/adapters/venue"
	"signalFlipBot/internal/app"
)

// shutdownGrace bounds how long in-flight flips may run after a stop signal.
const shutdownGrace = 30 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout})
	defer func() { _ = appLogger.Sync() }()
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Metrics
	promMetrics := metrics.NewPrometheus()

	// 4. Initialize Exchange Client
	exchange, err := venue.New(cfg, appLogger, promMetrics)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize exchange client", map[string]interface{}{"exchange": cfg.Exchange})
		log.Fatalf("FATAL: Failed to initialize exchange client: %v", err)
	}
	appLogger.Info(ctx, "Exchange client initialized", map[string]interface{}{"exchange": exchange.Name()})

	// 5. Initialize Application Service
	flipService, err := app.NewFlipService(cfg, appLogger, exchange, promMetrics)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize flip service")
		log.Fatalf("FATAL: Failed to initialize flip service: %v", err)
	}

	// 6. Initialize HTTP server
	server, err := httpapi.NewServer(httpapi.Config{
		Addr:    ":" + cfg.Port,
		Flipper: flipService,
		Metrics: promMetrics.Handler(),
		Logger:  appLogger,
		Defaults: httpapi.Defaults{
			Symbol:      cfg.DefaultSymbol,
			Percent:     cfg.DefaultPercent,
			Leverage:    cfg.DefaultLeverage,
			MaxLeverage: cfg.MaxLeverage,
		},
		WebhookToken: cfg.WebhookToken,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 7. Serve until a shutdown signal arrives
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Start(runCtx, shutdownGrace); err != nil {
		appLogger.Error(ctx, err, "HTTP server exited with error")
		log.Fatalf("FATAL: HTTP server exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
