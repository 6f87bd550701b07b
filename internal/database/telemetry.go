package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/irfndi/btc-dashboard-go/internal/database"

// TracedPool wraps a DatabasePool with a client span and a debug log line
// per statement.
type TracedPool struct {
	pool   DatabasePool
	tracer trace.Tracer
	logger *logrus.Logger
}

// NewTracedPool wraps pool using the global tracer provider.
func NewTracedPool(pool DatabasePool, logger *logrus.Logger) *TracedPool {
	if logger == nil {
		logger = logrus.New()
	}
	return &TracedPool{
		pool:   pool,
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}
}

func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := p.start(ctx, "Query", sql)
	defer span.End()

	start := time.Now()
	rows, err := p.pool.Query(ctx, sql, args...)
	p.finish(span, "Query", sql, start, err)
	return rows, err
}

func (p *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := p.start(ctx, "QueryRow", sql)
	defer span.End()

	start := time.Now()
	row := p.pool.QueryRow(ctx, sql, args...)
	p.finish(span, "QueryRow", sql, start, nil)
	return row
}

func (p *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := p.start(ctx, "Exec", sql)
	defer span.End()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	p.finish(span, "Exec", sql, start, err)
	return tag, err
}

func (p *TracedPool) start(ctx context.Context, operation, sql string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", compactSQL(sql)),
		),
	)
}

func (p *TracedPool) finish(span trace.Span, operation, sql string, start time.Time, err error) {
	entry := p.logger.WithFields(logrus.Fields{
		"component":   "database",
		"operation":   operation,
		"statement":   compactSQL(sql),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry.WithError(err).Warn("Database statement failed")
		return
	}
	entry.Debug("Database statement executed")
}

// compactSQL collapses whitespace so multi-line statements log on one line.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
