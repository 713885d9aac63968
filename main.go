package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeHive/config"
	"tradeHive/internal/adapters/exchange"
	"tradeHive/internal/adapters/logger"
	"tradeHive/internal/adapters/sqlite"
	"tradeHive/internal/app"
	"tradeHive/internal/ports"
	"tradeHive/internal/webhook"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	var zapLogger *logger.ZapLogger
	if cfg.LogFormat == "json" {
		zapLogger, err = logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger: %v", err)
		}
		defer zapLogger.Sync()
		appLogger = zapLogger
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()
	appLogger.Info(ctx, "Database repository initialized")

	// 4. Initialize Exchange Connector
	connector := exchange.NewConnector(appLogger)
	defer connector.Close()
	appLogger.Info(ctx, "Exchange connector initialized")

	// 5. Initialize Engine Components
	registry := app.NewRegistry()
	processor, err := app.NewProcessor(appLogger, registry, repo, repo, repo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal processor")
		log.Fatalf("FATAL: Failed to initialize signal processor: %v", err)
	}
	supervisor, err := app.NewSupervisor(app.SupervisorConfig{
		Logger:    appLogger,
		Registry:  registry,
		Processor: processor,
		Connector: connector,
		Bots:      repo,
		Trades:    repo,
		Users:     repo,
		Audit:     repo,
		Signals:   repo,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize supervisor")
		log.Fatalf("FATAL: Failed to initialize supervisor: %v", err)
	}
	appLogger.Info(ctx, "Engine components initialized")

	// 6. Initialize Webhook Server
	webhookServer, err := webhook.NewServer(webhook.Config{
		Logger:  appLogger,
		Bots:    repo,
		Queue:   processor,
		Addr:    cfg.WebhookAddr,
		BaseURL: cfg.WebhookBaseURL,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize webhook server")
		log.Fatalf("FATAL: Failed to initialize webhook server: %v", err)
	}

	// Root context canceled on shutdown signals.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(runCtx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// 7. Load Active Bots
	if err := supervisor.LoadActiveBots(runCtx); err != nil {
		appLogger.Error(runCtx, err, "FATAL: Failed to load active bots")
		log.Fatalf("FATAL: Failed to load active bots: %v", err)
	}

	// 8. Schedule Periodic Jobs
	scheduler, err := app.NewScheduler(appLogger)
	if err != nil {
		appLogger.Error(runCtx, err, "FATAL: Failed to initialize scheduler")
		log.Fatalf("FATAL: Failed to initialize scheduler: %v", err)
	}
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context)
	}{
		{"monitor", cfg.MonitorInterval, supervisor.MonitorTick},
		{"signals", cfg.SignalInterval, func(jctx context.Context) {
			if err := processor.ProcessPending(jctx); err != nil && jctx.Err() == nil {
				appLogger.Error(jctx, err, "Signal processing pass failed")
			}
		}},
		{"metrics", cfg.MetricsInterval, supervisor.UpdateMetrics},
		{"balance-sync", cfg.BalanceSyncInterval, supervisor.SyncBalances},
		{"maintenance", cfg.MaintenanceInterval, supervisor.DailyMaintenance},
	}
	for _, job := range jobs {
		if err := scheduler.AddJob(job.name, job.interval, job.run); err != nil {
			appLogger.Error(runCtx, err, "FATAL: Failed to register job", map[string]interface{}{"job": job.name})
			log.Fatalf("FATAL: Failed to register job %s: %v", job.name, err)
		}
	}
	scheduler.Start(runCtx)
	defer scheduler.Stop()

	// 9. Run the Webhook Server (blocks until shutdown)
	if err := webhookServer.Start(runCtx); err != nil {
		appLogger.Error(runCtx, err, "Webhook server exited with error")
		log.Fatalf("FATAL: Webhook server exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
