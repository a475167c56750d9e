package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marcuschung/assetflow-backend/api/routes"
	assetsvc "github.com/marcuschung/assetflow-backend/internal/assets"
	"github.com/marcuschung/assetflow-backend/internal/movements"
	"github.com/marcuschung/assetflow-backend/internal/stocktakes"
	"github.com/marcuschung/assetflow-backend/pkg/config"
	"github.com/marcuschung/assetflow-backend/pkg/db"
	"github.com/marcuschung/assetflow-backend/pkg/logger"
	"github.com/marcuschung/assetflow-backend/pkg/metrics"
	"github.com/marcuschung/assetflow-backend/pkg/migrate"
	"github.com/marcuschung/assetflow-backend/pkg/redis"
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

	registry := assetsvc.NewRegistry(dbClient.DB())

	registryService, err := assetsvc.NewService(assetsvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
		os.Exit(1)
	}

	movementService, err := movements.NewService(
		movements.NewRepository(dbClient.DB()),
		registry,
		dbClient,
		movements.NewTrackingGenerator(cfg.Tracking),
		cfg.Tracking.MaxAttempts,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create movement service", err)
		os.Exit(1)
	}

	stockTakeService, err := stocktakes.NewService(
		stocktakes.NewRepository(dbClient.DB()),
		registry,
		dbClient,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock take service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

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
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Metrics:      httpMetrics,
			PromRegistry: promRegistry,
			Movements:    movementService,
			StockTakes:   stockTakeService,
			Registry:     registryService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
