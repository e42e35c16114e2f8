package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vendinha-erp/vendinha-erp/internal/app"
	"github.com/vendinha-erp/vendinha-erp/internal/catalog"
	"github.com/vendinha-erp/vendinha-erp/internal/customers"
	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
	"github.com/vendinha-erp/vendinha-erp/internal/observability"
	"github.com/vendinha-erp/vendinha-erp/internal/platform/cache"
	"github.com/vendinha-erp/vendinha-erp/internal/platform/db"
	"github.com/vendinha-erp/vendinha-erp/internal/production"
	"github.com/vendinha-erp/vendinha-erp/internal/purchasing"
	"github.com/vendinha-erp/vendinha-erp/internal/reports"
	"github.com/vendinha-erp/vendinha-erp/internal/returnables"
	"github.com/vendinha-erp/vendinha-erp/internal/sales"
	"github.com/vendinha-erp/vendinha-erp/internal/shared"
	"github.com/vendinha-erp/vendinha-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

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
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, auditLogger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo, auditLogger)
	customersHandler := customers.NewHandler(logger, customersService)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	purchasingRepo := purchasing.NewRepository(pool)
	purchasingService := purchasing.NewService(purchasingRepo, auditLogger, idempotencyStore)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService)

	productionRepo := production.NewRepository(pool)
	productionService := production.NewService(productionRepo, auditLogger, idempotencyStore)
	productionHandler := production.NewHandler(logger, productionService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, auditLogger, cfg.ReturnableDepositValue)
	salesHandler := sales.NewHandler(logger, salesService, cfg.CardFeePct)

	returnablesRepo := returnables.NewRepository(pool)
	returnablesService := returnables.NewService(returnablesRepo, auditLogger, cfg.ReturnableDepositValue)
	returnablesHandler := returnables.NewHandler(logger, returnablesService)

	reportsRepo := reports.NewRepository(pool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportsCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CatalogHandler:     catalogHandler,
		CustomersHandler:   customersHandler,
		InventoryHandler:   inventoryHandler,
		PurchasingHandler:  purchasingHandler,
		ProductionHandler:  productionHandler,
		SalesHandler:       salesHandler,
		ReturnablesHandler: returnablesHandler,
		ReportsHandler:     reportsHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
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
