package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/lotbid/internal/config"
)

func TestLoadConfigPrefersPrefixedVariables(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOTBID_LOG_LEVEL", "DEBUG")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")

	cfg := LoadConfig(config.Config{AppName: "lotbid", Environment: "production"})
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected prefixed log level, got %q", cfg.LogLevel)
	}
	if cfg.OtelSamplingRatio != 0.5 {
		t.Fatalf("expected bare sampling ratio, got %v", cfg.OtelSamplingRatio)
	}
	if !cfg.Debug() {
		t.Fatalf("expected debug mode from log level")
	}
}

func TestLoadConfigSlowQueryThreshold(t *testing.T) {
	cfg := LoadConfig(config.Config{})
	if cfg.SlowQueryThreshold != 200*time.Millisecond {
		t.Fatalf("expected default threshold, got %v", cfg.SlowQueryThreshold)
	}
	if cfg.ServiceName != "lotbid" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}

	t.Setenv("LOTBID_SLOW_QUERY_MS", "750")
	cfg = LoadConfig(config.Config{})
	if cfg.SlowQueryThreshold != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %v", cfg.SlowQueryThreshold)
	}
}
