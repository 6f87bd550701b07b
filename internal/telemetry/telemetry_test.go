package telemetry

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/irfndi/btc-dashboard-go/internal/config"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func restoreGlobalProvider(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, quietLogger())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	restoreGlobalProvider(t)

	var buf bytes.Buffer
	cfg := config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "btc-dashboard-test",
		Exporter:    config.ExporterStdout,
		SampleRatio: 1.0,
	}
	shutdown, err := initWithWriter(context.Background(), cfg, &buf, quietLogger())
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "fetch-spot-price")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "fetch-spot-price")
	assert.Contains(t, buf.String(), "btc-dashboard-test")
}

func TestInit_ZeroSampleRatioDropsSpans(t *testing.T) {
	restoreGlobalProvider(t)

	var buf bytes.Buffer
	cfg := config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "btc-dashboard-test",
		Exporter:    config.ExporterStdout,
		SampleRatio: 0,
	}
	shutdown, err := initWithWriter(context.Background(), cfg, &buf, quietLogger())
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "dropped")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.NotContains(t, buf.String(), "dropped")
}

func TestInit_UnsupportedExporter(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: true, Exporter: "zipkin"}
	_, err := Init(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestInit_OTLPExporterConstructs(t *testing.T) {
	restoreGlobalProvider(t)

	cfg := config.TelemetryConfig{
		Enabled:      true,
		ServiceName:  "btc-dashboard-test",
		Exporter:     config.ExporterOTLP,
		OTLPEndpoint: "127.0.0.1:1",
		Insecure:     true,
		SampleRatio:  1,
	}
	shutdown, err := Init(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
