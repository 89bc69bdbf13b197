// Package observability wires OpenTelemetry tracing for the service. HTTP
// spans come from otelgin, database spans from the GORM tracing plugin, and
// the services layer opens its own spans around index, document, task, and
// search operations. All of them flow through the provider configured here.
package observability

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-index-backend/internal/config"
)

// Construction seams. Tests swap these to reach the failure branches without
// a collector listening.
var (
	otlpClient = otlptracegrpc.NewClient

	otlpExporter = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	serviceResource = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
				semconv.ServiceInstanceID(uuid.NewString()),
			),
		)
	}
)

// SetupOTel configures OpenTelemetry tracing and returns a shutdown function.
// When cfg.Enabled is false it installs nothing and the returned shutdown is a
// no-op, so callers can always defer it. Globals are only touched once every
// construction step has succeeded.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlpExporter(ctx, otlpClient(grpcOptions(cfg)...))
	if err != nil {
		return nil, err
	}

	res, err := serviceResource(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	// ParentBased keeps sampling decisions consistent across a task's
	// enqueue/execute span tree.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// grpcOptions builds the OTLP client options: the endpoint plus either
// plaintext or ambient-CA TLS transport.
func grpcOptions(cfg config.OTELConfig) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		return append(opts, otlptracegrpc.WithInsecure())
	}
	return append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
}
