package upstream

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/btc-dashboard-go/internal/clock"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour}, nil, testLogger())
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
	assert.Equal(t, Closed, cb.State())
	assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
	assert.Equal(t, Open, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	stats := cb.Stats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(2), stats.FailedRequests)
	assert.Equal(t, int64(1), stats.RejectedRequests)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clk := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute}, clk, testLogger())

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("x") })
	assert.Equal(t, Open, cb.State())

	clk.Advance(2 * time.Minute)
	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clk := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute}, clk, testLogger())

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("x") })
	clk.Advance(2 * time.Minute)
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("y") })
	assert.Equal(t, Open, cb.State())

	cb.Reset()
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_StaysOpenUntilTimeoutElapses(t *testing.T) {
	clk := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cb := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute}, clk, testLogger())
	ok := func(context.Context) error { return nil }

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("x") })
	require.Equal(t, Open, cb.State())

	clk.Advance(59 * time.Second)
	assert.ErrorIs(t, cb.Execute(context.Background(), ok), ErrCircuitOpen)
	assert.Equal(t, Open, cb.State())

	clk.Advance(2 * time.Second)
	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, Closed, cb.State())
	assert.Equal(t, clk.Now(), cb.Stats().LastSuccessTime)
}

func TestCircuitBreaker_CanceledContextNotCounted(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 1}, nil, testLogger())
	err := cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Closed, cb.State())
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
