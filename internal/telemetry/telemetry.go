// Package telemetry installs OpenTelemetry trace and metric providers that
// export over OTLP/gRPC when an endpoint is configured.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
)

// EndpointEnv enables export when set. The exporters read the rest of the
// standard OTEL_EXPORTER_OTLP_* variables themselves.
const EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Enabled reports whether getenv names an OTLP endpoint.
func Enabled(getenv func(string) string) bool { return getenv(EndpointEnv) != "" }

// Setup installs global trace and meter providers for serviceName. Without an
// endpoint the no-op globals stay in place and the returned func does nothing.
func Setup(ctx context.Context, serviceName string, getenv func(string) string) (ShutdownFunc, error) {
	if !Enabled(getenv) {
		return noop, nil
	}
	endpoint := getenv(EndpointEnv)

	res := Resource(serviceName)

	traceExp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
	if err != nil {
		return noop, fmt.Errorf("creating trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(endpoint))
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return noop, fmt.Errorf("creating metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return tp.Shutdown(ctx) })
		g.Go(func() error { return mp.Shutdown(ctx) })
		if err := g.Wait(); err != nil {
			return fmt.Errorf("telemetry shutdown: %w", err)
		}
		return nil
	}, nil
}

// Flush exports buffered spans and metrics of the installed SDK providers
// without stopping them. It does nothing while the no-op globals are in place.
func Flush(ctx context.Context) error {
	var g errgroup.Group
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		g.Go(func() error { return tp.ForceFlush(ctx) })
	}
	if mp, ok := otel.GetMeterProvider().(*sdkmetric.MeterProvider); ok {
		g.Go(func() error { return mp.ForceFlush(ctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("telemetry flush: %w", err)
	}
	return nil
}

// Resource describes this process to the collector.
func Resource(serviceName string) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)
}
