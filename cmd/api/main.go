package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cocomarket/bulkbuy-backend/api/routes"
	"github.com/cocomarket/bulkbuy-backend/internal/cart"
	"github.com/cocomarket/bulkbuy-backend/internal/catalog"
	"github.com/cocomarket/bulkbuy-backend/internal/consolidation"
	"github.com/cocomarket/bulkbuy-backend/internal/lots"
	"github.com/cocomarket/bulkbuy-backend/internal/packages"
	"github.com/cocomarket/bulkbuy-backend/internal/shipments"
	"github.com/cocomarket/bulkbuy-backend/internal/trace"
	"github.com/cocomarket/bulkbuy-backend/pkg/config"
	"github.com/cocomarket/bulkbuy-backend/pkg/db"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/metrics"
	"github.com/cocomarket/bulkbuy-backend/pkg/migrate"
	"github.com/cocomarket/bulkbuy-backend/pkg/outbox"
	"github.com/cocomarket/bulkbuy-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	consolidationMetrics := metrics.NewConsolidationMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	catalogRepo := catalog.NewRepository(gormDB)

	consolidationService, err := consolidation.NewService(consolidation.NewRepository(gormDB), dbClient, outboxService, logg, consolidationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create consolidation service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), dbClient, catalogRepo, outboxService, consolidationService, cfg.Consolidation.RebuildOnSplit, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	lotService, err := lots.NewService(lots.NewRepository(gormDB), catalogRepo, dbClient, outboxService, logg, consolidationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create lot service", err)
		os.Exit(1)
	}

	packageService, err := packages.NewService(packages.NewRepository(gormDB), dbClient, outboxService, logg, consolidationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create package service", err)
		os.Exit(1)
	}

	shipmentService, err := shipments.NewService(shipments.NewRepository(gormDB), dbClient, outboxService, logg, consolidationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment service", err)
		os.Exit(1)
	}

	traceService, err := trace.NewService(trace.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create trace service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			cartService,
			lotService,
			packageService,
			shipmentService,
			traceService,
			consolidationService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
