package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// DatabasePool defines the pool operations the repositories need, so both
// pgxpool.Pool and pgxmock pools can be used.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const createDailyCloseTable = `
	CREATE TABLE IF NOT EXISTS btc_daily_close (
		date       DATE PRIMARY KEY,
		close      DOUBLE PRECISION NOT NULL CHECK (close > 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// PriceRepository mirrors the daily close series in PostgreSQL. It can also
// serve as the series source in place of the record file.
type PriceRepository struct {
	pool DatabasePool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool DatabasePool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// EnsureSchema creates the btc_daily_close table when missing.
func (r *PriceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createDailyCloseTable); err != nil {
		return fmt.Errorf("failed to create btc_daily_close: %w", err)
	}
	return nil
}

// Load returns the stored series ascending by date. An empty table is
// reported as NotFound, like a missing record file.
func (r *PriceRepository) Load(ctx context.Context) (models.Series, error) {
	rows, err := r.pool.Query(ctx, `SELECT date, close FROM btc_daily_close ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily closes: %w", err)
	}
	defer rows.Close()

	var series models.Series
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily close: %w", err)
		}
		if !models.ValidClose(p.Close) {
			continue
		}
		p.Date = models.DayOf(p.Date)
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily closes: %w", err)
	}
	if len(series) == 0 {
		return nil, utils.NewNotFoundError("historical data not found", nil)
	}
	return series, nil
}

// UpsertSeries writes every point in one statement, replacing closes of
// existing dates. It returns the number of rows written.
func (r *PriceRepository) UpsertSeries(ctx context.Context, series models.Series) (int64, error) {
	if len(series) == 0 {
		return 0, nil
	}

	dates := make([]time.Time, len(series))
	closes := make([]float64, len(series))
	for i, p := range series {
		dates[i] = models.DayOf(p.Date)
		closes[i] = p.Close
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO btc_daily_close (date, close)
		SELECT d, c FROM unnest($1::date[], $2::double precision[]) AS t(d, c)
		ON CONFLICT (date) DO UPDATE SET close = EXCLUDED.close, updated_at = now()`,
		dates, closes)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert daily closes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LatestDate returns the most recent stored date, or false for an empty table.
func (r *PriceRepository) LatestDate(ctx context.Context) (time.Time, bool, error) {
	var latest *time.Time
	if err := r.pool.QueryRow(ctx, `SELECT max(date) FROM btc_daily_close`).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest date: %w", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return models.DayOf(*latest), true, nil
}
