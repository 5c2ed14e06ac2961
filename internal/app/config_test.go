package app

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %s, want :8080", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %s, want :9090", cfg.MetricsAddr)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FARMMARKET_HTTP_ADDR", ":9999")
	t.Setenv("FARMMARKET_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %s, want :9999", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	// Значения по умолчанию применяются для незаданных переменных.
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %s, want :9090", cfg.MetricsAddr)
	}
}
