// Package telemetry installs the OpenTelemetry tracer used by the runner
package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"dwhload/pkg/errors"
)

const TracerName = "dwhload"

// Config describes the traced process
type Config struct {
	ServiceName string
	Version     string
	RunID       string
	// Writer receives the exported spans, one JSON document each
	Writer io.Writer
}

// Init installs a global tracer provider exporting to cfg.Writer. The
// returned function flushes and shuts the provider down.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = TracerName
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "Failed to create trace exporter")
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(cfg.Version),
		attribute.String("dwhload.run_id", cfg.RunID),
	))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "Failed to build trace resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the tracer of the global provider. Without Init it is a
// no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
