package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func testLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(DebugLevel, &buf), &buf
}

func TestInitOTelDisabled(t *testing.T) {
	logger, _ := testLogger()

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.Nil(t, providers)
}

func TestShutdownOTelNilProviders(t *testing.T) {
	logger, _ := testLogger()

	assert.NoError(t, ShutdownOTel(context.Background(), nil, logger))
	assert.NoError(t, ShutdownOTel(context.Background(), &OTelProviders{}, logger))
}

func TestShutdownOTelWithProvider(t *testing.T) {
	logger, _ := testLogger()
	tp := sdktrace.NewTracerProvider()

	err := ShutdownOTel(context.Background(), &OTelProviders{TracerProvider: tp}, logger)
	assert.NoError(t, err)
}

func TestUpdateLoggerWithTraceContext(t *testing.T) {
	t.Run("no span returns the same logger", func(t *testing.T) {
		logger, _ := testLogger()
		got := UpdateLoggerWithTraceContext(context.Background(), logger)
		assert.Same(t, logger, got)
	})

	t.Run("recording span adds trace fields", func(t *testing.T) {
		logger, buf := testLogger()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		got := UpdateLoggerWithTraceContext(ctx, logger)
		require.NotSame(t, logger, got)

		got.Info("traced")
		out := buf.String()
		assert.Contains(t, out, "trace_id")
		assert.Contains(t, out, span.SpanContext().TraceID().String())
	})

	t.Run("non-recording span leaves logger untouched", func(t *testing.T) {
		logger, _ := testLogger()
		ctx := trace.ContextWithSpanContext(context.Background(), trace.SpanContext{})
		got := UpdateLoggerWithTraceContext(ctx, logger)
		assert.Same(t, logger, got)
	})
}
