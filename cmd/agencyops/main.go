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

	"github.com/agencyops/agencyops/internal/app"
	"github.com/agencyops/agencyops/internal/auth"
	"github.com/agencyops/agencyops/internal/catalog"
	"github.com/agencyops/agencyops/internal/clients"
	"github.com/agencyops/agencyops/internal/documents"
	"github.com/agencyops/agencyops/internal/observability"
	"github.com/agencyops/agencyops/internal/platform/cache"
	"github.com/agencyops/agencyops/internal/platform/db"
	"github.com/agencyops/agencyops/internal/proposals"
	"github.com/agencyops/agencyops/internal/reporting"
	"github.com/agencyops/agencyops/internal/shared"
	"github.com/agencyops/agencyops/jobs"
	"github.com/agencyops/agencyops/report"
)

func main() {
	if app.SkipStartup("api") {
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
	slog.SetDefault(logger)

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PGDSN); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	metrics := observability.NewMetrics()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authService := auth.NewService(auth.NewRepository(dbpool), tokens)
	authHandler := auth.NewHandler(logger, authService)

	reportingService := reporting.NewService(
		reporting.NewRepository(dbpool),
		reporting.NewCache(redisClient, cfg.ReportCacheTTL),
		logger,
	)

	jobClient := jobs.NewClient(redisOpts, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	proposalService := proposals.NewService(
		proposals.NewRepository(dbpool),
		proposals.NewRedisContractNumbers(redisClient),
		shared.NewRedisLocker(redisClient),
		proposals.HookChain{reportingService, jobClient},
		logger,
		proposals.WithLockTTL(cfg.ActivationLockTTL),
		proposals.WithTokenCost(cfg.ShareTokenCost),
		proposals.WithMetrics(metrics),
	)

	renderer, err := documents.NewRenderer(cfg.DocumentLanguage, cfg.CurrencySymbol)
	if err != nil {
		logger.Error("init contract renderer", slog.Any("error", err))
		os.Exit(1)
	}
	pdfClient := report.NewClient(cfg.GotenbergURL, nil)
	documentService := documents.NewService(proposalService, renderer, pdfClient, cfg.DocumentStorageDir, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		Metrics:          metrics,
		AuthHandler:      authHandler,
		ProposalHandler:  proposals.NewHandler(logger, proposalService),
		ClientHandler:    clients.NewHandler(logger, clients.NewService(clients.NewRepository(dbpool))),
		CatalogHandler:   catalog.NewHandler(logger, catalog.NewService(catalog.NewRepository(dbpool), logger)),
		DocumentHandler:  documents.NewHandler(logger, documentService),
		ReportingHandler: reporting.NewHandler(logger, reportingService),
		RendererHandler:  report.NewHandler(pdfClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
