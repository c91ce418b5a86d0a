package telemetry

import (
	"context"
	"testing"
)

// Config loading is cached process-wide, so these tests only cover the
// disabled path that the cache is guaranteed to hold under `go test`.
func TestInit_Disabled(t *testing.T) {
	clearOtelEnv(t)

	shutdown, err := Init(context.Background())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a shutdown function")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned error: %v", err)
	}
	if Enabled() {
		t.Error("expected tracing disabled")
	}
}

func TestGetConfig(t *testing.T) {
	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg != GetConfig() {
		t.Error("expected cached config to be stable")
	}
}

func TestTracer(t *testing.T) {
	tracer := Tracer()
	if tracer == nil {
		t.Fatal("expected non-nil tracer")
	}

	_, span := tracer.Start(context.Background(), "remap.test")
	span.End()
}
