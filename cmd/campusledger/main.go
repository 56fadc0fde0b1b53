package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/campusledger/campusledger/internal/app"
	"github.com/campusledger/campusledger/internal/auth"
	"github.com/campusledger/campusledger/internal/budget"
	"github.com/campusledger/campusledger/internal/finance/accounts"
	"github.com/campusledger/campusledger/internal/finance/journals"
	"github.com/campusledger/campusledger/internal/finance/reports"
	"github.com/campusledger/campusledger/internal/finance/transactions"
	"github.com/campusledger/campusledger/internal/observability"
	"github.com/campusledger/campusledger/internal/platform/cache"
	"github.com/campusledger/campusledger/internal/platform/db"
	"github.com/campusledger/campusledger/internal/shared"
	"github.com/campusledger/campusledger/jobs"
)

// reportCacheHooks fans the posting signal out to the versioned cache and
// the background warm-up queue.
type reportCacheHooks struct {
	reports *reports.Service
	jobs    *jobs.Client
	logger  *slog.Logger
}

func (h reportCacheHooks) Bump(ctx context.Context, tenantID uuid.UUID) error {
	if err := h.reports.Bump(ctx, tenantID); err != nil {
		return err
	}
	if h.jobs != nil {
		if err := h.jobs.EnqueueCacheWarm(ctx, tenantID); err != nil && h.logger != nil {
			h.logger.Warn("enqueue cache warm", slog.Any("error", err))
		}
	}
	return nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService, validate)
	authMiddleware := auth.NewMiddleware(authService, logger)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService, validate)

	txnsRepo := transactions.NewRepository(pool)
	txnsService := transactions.NewService(txnsRepo)
	txnsHandler := transactions.NewHandler(logger, txnsService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsRepo := reports.NewRepository(pool, txnsRepo)
	reportsService := reports.NewService(reportsRepo, reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, reportCacheHooks{
		reports: reportsService,
		jobs:    jobClient,
		logger:  logger,
	}, metrics)
	journalsHandler := journals.NewHandler(logger, journalsService, validate, idempotencyStore)

	budgetRepo := budget.NewRepository(pool)
	budgetService := budget.NewService(budgetRepo, jobClient)
	budgetHandler := budget.NewHandler(logger, budgetService, validate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		Audit:               auditLogger,
		AccountsHandler:     accountsHandler,
		JournalsHandler:     journalsHandler,
		TransactionsHandler: txnsHandler,
		ReportsHandler:      reportsHandler,
		BudgetsHandler:      budgetHandler,
		JobsHandler:         jobsHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
