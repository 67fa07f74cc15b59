package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func TestExporterResource(t *testing.T) {
	t.Run("carries name and version", func(t *testing.T) {
		res, err := Exporter{ServiceName: "billing", ServiceVersion: "1.4.0"}.resource()
		require.NoError(t, err)

		name, ok := res.Set().Value(semconv.ServiceNameKey)
		require.True(t, ok)
		assert.Equal(t, "billing", name.AsString())
		version, ok := res.Set().Value(semconv.ServiceVersionKey)
		require.True(t, ok)
		assert.Equal(t, "1.4.0", version.AsString())
	})

	t.Run("defaults the version", func(t *testing.T) {
		res, err := Exporter{ServiceName: "billing"}.resource()
		require.NoError(t, err)

		version, ok := res.Set().Value(semconv.ServiceVersionKey)
		require.True(t, ok)
		assert.Equal(t, defaultServiceVersion, version.AsString())
	})
}

func TestShutdownSignal(t *testing.T) {
	boom := errors.New("boom")

	err := shutdownSignal(context.Background(), "meter", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "meter provider")

	var deadline time.Time
	err = shutdownSignal(context.Background(), "tracer", func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(shutdownTimeout), deadline, time.Second)
}

func TestMetricsConfigInterval(t *testing.T) {
	assert.Equal(t, defaultExportInterval, MetricsConfig{}.interval())
	assert.Equal(t, 5*time.Second, MetricsConfig{ExportInterval: 5 * time.Second}.interval())
}
