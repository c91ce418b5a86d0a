package telemetry

import (
	"os"
	"strings"
)

// Config holds the tracing setup read from OTEL_* environment variables.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector address, with or without scheme.
	Endpoint string
	// Protocol selects the exporter transport, "grpc" or "http/protobuf".
	Protocol string
	// Headers are attached to every export request, e.g. Authorization.
	Headers  map[string]string
	Insecure bool

	// Sampler names the trace sampler: always_on, always_off,
	// traceidratio or a parentbased_ variant. SamplerArg carries the
	// ratio where one applies.
	Sampler    string
	SamplerArg string

	// ResourceAttrs are merged into the resource attributes.
	ResourceAttrs map[string]string
}

// LoadFromEnv reads the standard OTEL_* variables.
func LoadFromEnv() *Config {
	return &Config{
		Enabled:        envBool("OTEL_ENABLED"),
		ServiceName:    envOr("OTEL_SERVICE_NAME", "resopt"),
		ServiceVersion: envOr("OTEL_SERVICE_VERSION", "unknown"),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        parseKVList(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:       envBool("OTEL_EXPORTER_OTLP_INSECURE"),
		Sampler:        os.Getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  parseKVList(os.Getenv("OTEL_RESOURCE_ATTRIBUTES")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	return strings.EqualFold(os.Getenv(key), "true")
}

// parseKVList parses "k1=v1,k2=v2" into a map. Values may contain '=';
// entries without a key are skipped.
func parseKVList(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(pair[:idx])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(pair[idx+1:])
	}
	return out
}
