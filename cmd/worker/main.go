package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agencyops/agencyops/internal/app"
	"github.com/agencyops/agencyops/internal/documents"
	"github.com/agencyops/agencyops/internal/platform/cache"
	"github.com/agencyops/agencyops/internal/platform/db"
	"github.com/agencyops/agencyops/internal/proposals"
	"github.com/agencyops/agencyops/internal/reporting"
	"github.com/agencyops/agencyops/jobs"
	"github.com/agencyops/agencyops/report"
)

func main() {
	if app.SkipStartup("worker") {
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	renderer, err := documents.NewRenderer(cfg.DocumentLanguage, cfg.CurrencySymbol)
	if err != nil {
		logger.Error("init contract renderer", slog.Any("error", err))
		os.Exit(1)
	}
	documentService := documents.NewService(
		proposals.NewRepository(pool),
		renderer,
		report.NewClient(cfg.GotenbergURL, nil),
		cfg.DocumentStorageDir,
		logger,
	)
	reportingService := reporting.NewService(
		reporting.NewRepository(pool),
		reporting.NewCache(redisClient, cfg.ReportCacheTTL),
		logger,
	)

	renderJob := jobs.NewContractRenderJob(documentService, logger, nil)
	warmupJob := jobs.NewPipelineWarmupJob(reportingService, logger, nil)

	warmupTask, err := jobs.NewPipelineWarmupTask(jobs.PipelineWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskContractRender, Handler: renderJob.Handle},
			{Type: jobs.TaskPipelineWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.PipelineWarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics listener", slog.Any("error", err))
			}
		}()
		defer metricsServer.Close()
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
