package telemetry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Settings selects the signals exported to the collector.
type Settings struct {
	Exporter
	Tracing         bool
	SamplingRatio   float64
	Metrics         bool
	MetricsInterval time.Duration
	Logs            bool
}

// Providers groups the trace, metric and log providers so they start and stop together.
type Providers struct {
	Traces  *TracerProvider
	Metrics *MeterProvider
	Logs    *LoggerProvider
}

// Setup starts every provider. When one fails, those already started are shut down.
func Setup(ctx context.Context, s Settings, logger *zap.Logger) (*Providers, error) {
	p := &Providers{}
	var err error

	p.Traces, err = NewTracerProvider(ctx, Config{Exporter: s.Exporter, Enabled: s.Tracing, SamplingRatio: s.SamplingRatio}, logger)
	if err != nil {
		return nil, err
	}
	p.Metrics, err = NewMeterProvider(ctx, MetricsConfig{Exporter: s.Exporter, Enabled: s.Metrics, ExportInterval: s.MetricsInterval}, logger)
	if err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	p.Logs, err = NewLoggerProvider(ctx, LogsConfig{Exporter: s.Exporter, Enabled: s.Logs}, logger)
	if err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	return p, nil
}

// Shutdown flushes metrics first, then traces, then logs so that errors from
// the earlier flushes can still be exported.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Metrics != nil {
		errs = append(errs, p.Metrics.Shutdown(ctx))
	}
	if p.Traces != nil {
		errs = append(errs, p.Traces.Shutdown(ctx))
	}
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
