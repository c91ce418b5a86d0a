package telemetry

import "testing"

func clearOtelEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OTEL_ENABLED",
		"OTEL_SERVICE_NAME",
		"OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_PROTOCOL",
		"OTEL_EXPORTER_OTLP_HEADERS",
		"OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_TRACES_SAMPLER",
		"OTEL_TRACES_SAMPLER_ARG",
		"OTEL_RESOURCE_ATTRIBUTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearOtelEnv(t)

	cfg := LoadFromEnv()
	if cfg.Enabled {
		t.Error("expected Enabled false by default")
	}
	if cfg.ServiceName != "resopt" {
		t.Errorf("expected service name 'resopt', got %q", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "unknown" {
		t.Errorf("expected service version 'unknown', got %q", cfg.ServiceVersion)
	}
	if cfg.Protocol != "grpc" {
		t.Errorf("expected protocol 'grpc', got %q", cfg.Protocol)
	}
}

func TestLoadFromEnv_EnabledCaseInsensitive(t *testing.T) {
	clearOtelEnv(t)
	t.Setenv("OTEL_ENABLED", "TRUE")

	if !LoadFromEnv().Enabled {
		t.Error("expected Enabled true for 'TRUE'")
	}
}

func TestLoadFromEnv_CustomValues(t *testing.T) {
	clearOtelEnv(t)
	t.Setenv("OTEL_SERVICE_NAME", "resopt-worker")
	t.Setenv("OTEL_SERVICE_VERSION", "1.2.0")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://collector.example.com:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg := LoadFromEnv()
	if cfg.ServiceName != "resopt-worker" {
		t.Errorf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "1.2.0" {
		t.Errorf("unexpected service version %q", cfg.ServiceVersion)
	}
	if cfg.Endpoint != "https://collector.example.com:4317" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.Protocol != "http/protobuf" {
		t.Errorf("unexpected protocol %q", cfg.Protocol)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure true")
	}
}

func TestLoadFromEnv_Headers(t *testing.T) {
	clearOtelEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer token123,X-Tenant=app")

	cfg := LoadFromEnv()
	if len(cfg.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(cfg.Headers))
	}
	if cfg.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("unexpected Authorization header %q", cfg.Headers["Authorization"])
	}
	if cfg.Headers["X-Tenant"] != "app" {
		t.Errorf("unexpected X-Tenant header %q", cfg.Headers["X-Tenant"])
	}
}

func TestLoadFromEnv_ResourceAttributes(t *testing.T) {
	clearOtelEnv(t)
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=production,service.namespace=resources")

	cfg := LoadFromEnv()
	if cfg.ResourceAttrs["deployment.environment"] != "production" {
		t.Errorf("unexpected attrs: %v", cfg.ResourceAttrs)
	}
	if cfg.ResourceAttrs["service.namespace"] != "resources" {
		t.Errorf("unexpected attrs: %v", cfg.ResourceAttrs)
	}
}

func TestParseKVList(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"value_with_equals", "Authorization=Bearer t=abc", map[string]string{"Authorization": "Bearer t=abc"}},
		{"empty_value", "key=", map[string]string{"key": ""}},
		{"no_equals", "invalid", map[string]string{}},
		{"mixed", "ok=1,bad,also=2", map[string]string{"ok": "1", "also": "2"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseKVList(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d pairs, got %d: %v", len(tc.want), len(got), got)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("expected %s=%q, got %q", k, v, got[k])
				}
			}
		})
	}
}
