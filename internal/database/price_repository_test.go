package database

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// pgxmockPool wraps pgxmock.PgxPoolIface to implement DatabasePool.
type pgxmockPool struct {
	mock pgxmock.PgxPoolIface
}

func (m *pgxmockPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *pgxmockPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return m.mock.Exec(ctx, sql, args...)
}

func (m *pgxmockPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}

func newMockRepository(t *testing.T) (*PriceRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err, "Failed to create mock pool")
	t.Cleanup(mockPool.Close)
	return NewPriceRepository(&pgxmockPool{mock: mockPool}), mockPool
}

func date(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPriceRepository_EnsureSchema(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	mockPool.ExpectExec(`CREATE TABLE IF NOT EXISTS btc_daily_close`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_Load(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	mockPool.ExpectQuery(`SELECT date, close FROM btc_daily_close ORDER BY date ASC`).
		WillReturnRows(pgxmock.NewRows([]string{"date", "close"}).
			AddRow(date("2024-01-01"), 33000.5).
			AddRow(date("2024-01-02"), 34000.0))

	series, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, date("2024-01-02"), series[1].Date)
	assert.Equal(t, 34000.0, series[1].Close)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_Load_SkipsNonFiniteCloses(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	mockPool.ExpectQuery(`SELECT date, close FROM btc_daily_close ORDER BY date ASC`).
		WillReturnRows(pgxmock.NewRows([]string{"date", "close"}).
			AddRow(date("2024-01-01"), math.NaN()).
			AddRow(date("2024-01-02"), 34000.0))

	series, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, date("2024-01-02"), series[0].Date)
}

func TestPriceRepository_Load_EmptyIsNotFound(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	mockPool.ExpectQuery(`SELECT date, close FROM btc_daily_close`).
		WillReturnRows(pgxmock.NewRows([]string{"date", "close"}))

	_, err := repo.Load(context.Background())
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestPriceRepository_Load_QueryError(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	mockPool.ExpectQuery(`SELECT date, close FROM btc_daily_close`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.False(t, utils.IsKind(err, utils.KindNotFound))
}

func TestPriceRepository_UpsertSeries(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	series := models.Series{
		{Date: date("2024-01-01"), Close: 1},
		{Date: date("2024-01-02").Add(13 * time.Hour), Close: 2},
	}

	mockPool.ExpectExec(`INSERT INTO btc_daily_close \(date, close\)`).
		WithArgs([]time.Time{date("2024-01-01"), date("2024-01-02")}, []float64{1, 2}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	n, err := repo.UpsertSeries(context.Background(), series)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_UpsertSeries_Empty(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	n, err := repo.UpsertSeries(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPriceRepository_UpsertSeries_Error(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	mockPool.ExpectExec(`INSERT INTO btc_daily_close`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock detected"))

	_, err := repo.UpsertSeries(context.Background(), models.Series{{Date: date("2024-01-01"), Close: 1}})
	assert.Error(t, err)
}

func TestPriceRepository_LatestDate(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	latest := date("2024-06-29")

	mockPool.ExpectQuery(`SELECT max\(date\) FROM btc_daily_close`).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&latest))

	got, ok, err := repo.LatestDate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, latest, got)
}

func TestPriceRepository_LatestDate_Empty(t *testing.T) {
	repo, mockPool := newMockRepository(t)

	mockPool.ExpectQuery(`SELECT max\(date\) FROM btc_daily_close`).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(nil))

	_, ok, err := repo.LatestDate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
