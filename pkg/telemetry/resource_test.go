package telemetry

import (
	"context"
	"testing"
)

func TestBuildResource(t *testing.T) {
	cfg := &Config{
		ServiceName:    "resopt-test",
		ServiceVersion: "0.9.0",
		ResourceAttrs:  map[string]string{"deployment.environment": "ci"},
	}

	res, err := buildResource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildResource failed: %v", err)
	}

	found := map[string]string{}
	for _, attr := range res.Attributes() {
		found[string(attr.Key)] = attr.Value.AsString()
	}

	if found["service.name"] != "resopt-test" {
		t.Errorf("expected service.name 'resopt-test', got %q", found["service.name"])
	}
	if found["service.version"] != "0.9.0" {
		t.Errorf("expected service.version '0.9.0', got %q", found["service.version"])
	}
	if found["deployment.environment"] != "ci" {
		t.Errorf("expected deployment.environment 'ci', got %q", found["deployment.environment"])
	}
}
