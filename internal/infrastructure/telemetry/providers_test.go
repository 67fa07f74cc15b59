package telemetry_test

import (
	"context"
	"testing"

	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestProvidersDisabled(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{Exporter: telemetry.Exporter{ServiceName: "test"}}, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	require.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{Exporter: telemetry.Exporter{ServiceName: "test"}}, logger)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{Exporter: telemetry.Exporter{ServiceName: "test"}}, logger)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.ZapCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestSetupDisabled(t *testing.T) {
	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, telemetry.Settings{
		Exporter: telemetry.Exporter{ServiceName: "test", ServiceVersion: "1.2.3"},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, providers.Traces.IsEnabled())
	assert.False(t, providers.Metrics.IsEnabled())
	assert.False(t, providers.Logs.IsEnabled())
	assert.NotNil(t, providers.Metrics.Meter("x"))
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestProvidersShutdownPartial(t *testing.T) {
	p := &telemetry.Providers{}
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNilLoggerProviderCore(t *testing.T) {
	var lp *telemetry.LoggerProvider
	assert.False(t, lp.ZapCore(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
}

func TestProfilerDisabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestProfilerRequiresAddress(t *testing.T) {
	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ApplicationName: "x"}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://p:4040"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestWithProfilingLabelsRunsFn(t *testing.T) {
	called := 0
	telemetry.WithProfilingLabels(context.Background(), telemetry.PaymentLabels("submit", "cash"), func(context.Context) {
		called++
	})
	telemetry.WithProfilingLabels(context.Background(), nil, func(context.Context) {
		called++
	})
	assert.Equal(t, 2, called)
}
