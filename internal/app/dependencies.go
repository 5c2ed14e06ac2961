package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/messaging/kafka"
	"github.com/nikitagorshkov/farmmarket/internal/storage/memory"
	"github.com/nikitagorshkov/farmmarket/internal/storage/postgres"
)

// Dependencies — собранные хранилища и опциональные внешние подключения.
type Dependencies struct {
	Products    domain.ProductRepository
	Orders      domain.OrderRepository
	Outbox      domain.OutboxRepository
	Timeline    domain.TimelineRepository
	Idempotency domain.IdempotencyRepository

	Store    *postgres.Store // nil в режиме in-memory
	Producer *kafka.Producer // nil, если Kafka не настроена
}

// buildDependencies выбирает хранилище по конфигурации: PostgreSQL при
// заданном DSN, иначе память процесса. История заказов и idempotency-ключи
// живут в памяти в обоих режимах.
func buildDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	deps := &Dependencies{
		Timeline:    memory.NewTimelineRepository(),
		Idempotency: memory.NewIdempotencyRepository(),
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		deps.Store = store
		deps.Products = postgres.NewProductRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		logger.Info("using postgres storage")
	} else {
		deps.Products = memory.NewProductRepository()
		deps.Orders = memory.NewOrderRepository()
		deps.Outbox = memory.NewOutboxRepository()
		logger.Info("using in-memory storage")
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.Producer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	return deps, nil
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close(logger *log.Entry) {
	if d.Producer != nil {
		if err := d.Producer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
