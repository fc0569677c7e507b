package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"loanmerge/internal/shared/testutil"
)

func TestOTelInitialization(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test", ServiceVersion: "v0"}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)
	assert.NotNil(t, providers.Metrics)
}

func TestUnsupportedTraceExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "jaeger"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestStdoutTraceExporter(t *testing.T) {
	var out bytes.Buffer
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "stdout", TraceWriter: &out}, nil)
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "load")
	span.End()
	require.NoError(t, providers.Shutdown(context.Background()))

	assert.Contains(t, out.String(), `"Name": "load"`)
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(nil, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx, span := providers.Tracer.Start(context.Background(), "merge")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.Len(t, traceID, 32)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
}

func TestRecordError(t *testing.T) {
	providers, err := InitializeOTel(nil, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "write")
	RecordError(ctx, errors.New("disk full"))
	RecordError(ctx, nil)
	span.End()

	// Recording on a context without a span is a no-op.
	RecordError(context.Background(), errors.New("ignored"))
	assert.False(t, trace.SpanFromContext(context.Background()).IsRecording())
}

func TestPipelineMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "loanmerge.prom")
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test", MetricsFile: path}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	providers.Metrics.RecordStep(ctx, "merge", "completed", 250*time.Millisecond, 42)
	providers.Metrics.RecordStep(ctx, "write", "failed", time.Millisecond, 0)
	providers.Metrics.RecordRun(ctx, "failed")

	require.NoError(t, providers.Shutdown(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	for _, name := range []string{
		"loanmerge_runs_total",
		"loanmerge_steps_total",
		"loanmerge_step_duration_seconds_bucket",
		"loanmerge_rows_processed_total",
		"loanmerge_errors_total",
	} {
		assert.True(t, strings.Contains(text, name), name)
	}
}

func TestRepeatedInitialization(t *testing.T) {
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(nil, nil)
		require.NoError(t, err)
		providers.Metrics.RecordRun(context.Background(), "completed")
		require.NoError(t, providers.WriteMetricsFile(filepath.Join(t.TempDir(), "m.prom")))
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestNilPipelineMetrics(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordStep(context.Background(), "load", "completed", time.Second, 1)
		m.RecordRun(context.Background(), "completed")
	})
}

func TestNoopTracer(t *testing.T) {
	ctx, span := NoopTracer().Start(context.Background(), "x")
	defer span.End()
	assert.False(t, span.IsRecording())
	assert.Empty(t, TraceIDFromContext(ctx))
}
