package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config — настройки запуска сервиса. Заполняется из окружения
// с префиксом FARMMARKET (FARMMARKET_HTTP_ADDR и т.д.).
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// PostgresDSN пустой — репозитории работают в памяти процесса.
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// KafkaBrokers пустой — события остаются только в outbox.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

const envPrefix = "FARMMARKET"

// LoadConfig читает конфигурацию из переменных окружения.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	return cfg, nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (без чтения окружения).
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		OutboxPollInterval: time.Second,
		ShutdownTimeout:    5 * time.Second,
	}
}
