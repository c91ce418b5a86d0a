// Package telemetry wires OpenTelemetry tracing for the rewrite engine
// and its services. Configuration comes from the standard OTEL_*
// environment variables; when OTEL_ENABLED is not "true" the global
// provider stays a no-op and Init returns a no-op shutdown.
//
// Environment variables:
//
//	OTEL_ENABLED                - enable tracing (default: false)
//	OTEL_SERVICE_NAME           - service name (default: resopt)
//	OTEL_SERVICE_VERSION        - service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT - OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL - grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS  - exporter headers, "k1=v1,k2=v2"
//	OTEL_EXPORTER_OTLP_INSECURE - skip TLS (default: false)
//	OTEL_TRACES_SAMPLER         - sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG     - sampler argument, e.g. the ratio
//	OTEL_RESOURCE_ATTRIBUTES    - extra resource attributes, "k1=v1,k2=v2"
//
// Usage:
//
//	shutdown, err := telemetry.Init(ctx)
//	if err != nil {
//	    logger.Warn("tracing disabled: %v", err)
//	}
//	defer shutdown(ctx)
//
//	ctx, span := telemetry.Tracer().Start(ctx, "remap.pass")
//	defer span.End()
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/resopt"

var (
	globalConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider from the environment
// configuration. Safe to call more than once; only the first call
// builds a provider.
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := loadConfig()
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}
	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(createSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Tracer returns the tracer all components publish spans under.
func Tracer() oteltrace.Tracer {
	return otel.Tracer(tracerName)
}

// Enabled reports whether tracing is switched on by the environment.
func Enabled() bool {
	return loadConfig().Enabled
}

// GetConfig returns the cached telemetry configuration.
func GetConfig() *Config {
	return loadConfig()
}

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}
