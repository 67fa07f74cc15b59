package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	defaultServiceVersion = "dev"
	shutdownTimeout       = 10 * time.Second
)

// Exporter describes the collector every signal is sent to and the service
// identity stamped on what is sent.
type Exporter struct {
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
}

func (e Exporter) version() string {
	if e.ServiceVersion == "" {
		return defaultServiceVersion
	}
	return e.ServiceVersion
}

func (e Exporter) resource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(e.ServiceName),
			semconv.ServiceVersion(e.version()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdownSignal bounds fn by shutdownTimeout and names the signal on failure.
func shutdownSignal(ctx context.Context, signal string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("failed to shutdown %s provider: %w", signal, err)
	}
	return nil
}
