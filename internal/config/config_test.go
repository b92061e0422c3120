package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.OSRMEndpoint != "http://router.project-osrm.org" {
		t.Errorf("OSRMEndpoint = %q", cfg.OSRMEndpoint)
	}
	if cfg.FallbackSpeedKmh != 40 {
		t.Errorf("FallbackSpeedKmh = %v, want 40", cfg.FallbackSpeedKmh)
	}
	if cfg.RouteTimeout != 6*time.Second {
		t.Errorf("RouteTimeout = %v, want 6s", cfg.RouteTimeout)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("KafkaBrokers = %v, want empty", cfg.KafkaBrokers)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ROUTE_TIMEOUT", "2s")
	t.Setenv("FALLBACK_SPEED_KMH", "25.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.RouteTimeout != 2*time.Second {
		t.Errorf("RouteTimeout = %v, want 2s", cfg.RouteTimeout)
	}
	if cfg.FallbackSpeedKmh != 25.5 {
		t.Errorf("FallbackSpeedKmh = %v, want 25.5", cfg.FallbackSpeedKmh)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v, want [k1:9092 k2:9092]", cfg.KafkaBrokers)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ROUTE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable duration")
	}
	t.Setenv("ROUTE_TIMEOUT", "")

	t.Setenv("FALLBACK_SPEED_KMH", "-3")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-positive fallback speed")
	}
}
