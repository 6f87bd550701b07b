package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/api"
	"github.com/irfndi/btc-dashboard-go/internal/api/handlers"
	"github.com/irfndi/btc-dashboard-go/internal/cache"
	"github.com/irfndi/btc-dashboard-go/internal/clock"
	"github.com/irfndi/btc-dashboard-go/internal/config"
	"github.com/irfndi/btc-dashboard-go/internal/database"
	"github.com/irfndi/btc-dashboard-go/internal/history"
	"github.com/irfndi/btc-dashboard-go/internal/logging"
	"github.com/irfndi/btc-dashboard-go/internal/services"
	"github.com/irfndi/btc-dashboard-go/internal/telemetry"
	"github.com/irfndi/btc-dashboard-go/internal/upstream"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}()

	clk := clock.Real{}

	dependencies := map[string]handlers.HealthChecker{}

	// Cache backend
	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisClient, err := database.NewRedisConnection(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient.Client, cfg.Cache.RedisPrefix)
		dependencies["redis"] = redisClient
	default:
		store = cache.NewFileStore(cfg.Data.CachePath())
	}
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("cache store %s unavailable: %w", store.Name(), err)
	}

	// Historical series source
	var source history.Source = history.NewCSVSource(cfg.Data.HistoricalPath())
	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		dependencies["postgres"] = db

		if cfg.Database.SeriesSource {
			source = database.NewPriceRepository(database.NewTracedPool(db.Pool, logger))
			logger.Info("Serving historical series from PostgreSQL")
		}
	}

	stats := cache.NewAnalytics()
	tc := cache.NewTimedCache(store, clk, logger, stats)
	resources, err := services.RegisterResources(cache.NewRegistry(), cfg.TTL, cfg.Upstream.VsCurrency)
	if err != nil {
		return fmt.Errorf("failed to register cache resources: %w", err)
	}

	up := cfg.Upstream
	for _, c := range []*upstream.Config{
		&up.CoinGecko, &up.BlockchainQuery, &up.BlockchainCharts,
		&up.Bitnodes, &up.Frankfurter, &up.FRED, &up.Mempool,
	} {
		c.Clock = clk
	}
	marketService := services.NewMarketService(
		source,
		upstream.NewCoinGecko(up.CoinGecko, logger),
		tc, resources, cfg.Analytics, up.VsCurrency, clk, logger,
	)
	networkService := services.NewNetworkService(
		upstream.NewBlockchain(up.BlockchainQuery, up.BlockchainCharts, logger),
		upstream.NewBitnodes(up.Bitnodes, logger),
		upstream.NewMempool(up.Mempool, logger),
		tc, resources, cfg.Analytics, clk, logger,
	)
	macroService := services.NewMacroService(
		upstream.NewFrankfurter(up.Frankfurter, logger),
		upstream.NewFRED(up.FRED, up.FREDAPIKey, logger),
		tc, resources, up.CPISeries, up.FXWindowDays, clk, logger,
	)

	health := handlers.NewHealthHandler(store, cfg.Data.HistoricalPath(), clk, serviceVersion)
	for name, dep := range dependencies {
		health.AddDependency(name, dep)
	}

	router := api.NewRouter(cfg.Telemetry.ServiceName, logger, api.Handlers{
		Dashboard: handlers.NewDashboardHandler(marketService, networkService, macroService, logger),
		Cache:     handlers.NewCacheHandler(stats, store.Name()),
		Health:    health,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.LogStartup(logger, cfg.Telemetry.ServiceName, serviceVersion, cfg.Server.Port)
		logger.WithFields(logrus.Fields{
			"cache_backend":   store.Name(),
			"historical_file": filepath.Clean(cfg.Data.HistoricalPath()),
			"vs_currency":     up.VsCurrency,
		}).Info("Dashboard configured")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logging.LogShutdown(logger, cfg.Telemetry.ServiceName, "signal received")
	}

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}
