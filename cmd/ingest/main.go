// Command ingest refreshes the historical daily close file from CoinGecko,
// once or on a cron schedule, optionally mirroring it into PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/config"
	"github.com/irfndi/btc-dashboard-go/internal/database"
	"github.com/irfndi/btc-dashboard-go/internal/logging"
	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/scheduler"
	"github.com/irfndi/btc-dashboard-go/internal/services"
	"github.com/irfndi/btc-dashboard-go/internal/telemetry"
	"github.com/irfndi/btc-dashboard-go/internal/upstream"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	var mirror services.SeriesWriter
	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := database.NewPriceRepository(database.NewTracedPool(db.Pool, logger))
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		latest, ok, err := repo.LatestDate(ctx)
		if err != nil {
			return err
		}
		if ok {
			logger.WithField("latest_date", latest.Format(models.DateLayout)).Info("PostgreSQL mirror enabled")
		} else {
			logger.Info("PostgreSQL mirror enabled, table is empty")
		}
		mirror = repo
	}

	ingest := services.NewIngestService(
		upstream.NewCoinGecko(cfg.Upstream.CoinGecko, logger),
		cfg.Data.HistoricalPath(),
		mirror,
		cfg.Upstream.VsCurrency,
		cfg.Ingest.Days,
		logger,
	)
	sched := scheduler.New(ctx, ingest, logger)

	if once {
		_, err := sched.RunNow()
		return err
	}

	if err := sched.Register(cfg.Ingest.Schedule); err != nil {
		return err
	}
	if cfg.Ingest.RunOnStart {
		// A failed first run is logged; the schedule still retries.
		_, _ = sched.RunNow()
	}

	sched.Start()
	<-ctx.Done()
	sched.Stop()

	runs, lastErr := sched.Stats()
	logger.WithFields(logrus.Fields{
		"runs":       runs,
		"last_error": lastErr,
	}).Info("Ingestion scheduler exited")
	return nil
}
