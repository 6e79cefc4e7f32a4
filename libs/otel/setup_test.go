package otelx

import (
	"context"
	"testing"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "2")
	cfg := ConfigFromEnv("calendar-service")
	if cfg.Enabled {
		t.Fatal("expected tracing disabled by default")
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("expected out-of-range ratio to fall back to 1, got %v", cfg.SampleRatio)
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Fatalf("unexpected endpoint %q", cfg.OTLPEndpoint)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false, ServiceName: "calendar-service"})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestConfigAttributes(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("SERVICE_VERSION", "1.2.0")
	t.Setenv("DEPLOYMENT_ENVIRONMENT", "staging")
	cfg := ConfigFromEnv("calendar-service")
	if !cfg.Enabled {
		t.Fatal("expected tracing enabled")
	}
	got := map[string]string{}
	for _, kv := range cfg.attributes() {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	if got["service.name"] != "calendar-service" || got["service.version"] != "1.2.0" || got["deployment.environment"] != "staging" {
		t.Fatalf("unexpected resource attributes: %v", got)
	}
}
