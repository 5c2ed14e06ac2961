package lifecycle

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/messaging/kafka"
	"github.com/nikitagorshkov/farmmarket/internal/metrics"
)

// Имена событий истории заказа.
const (
	timelineEventStatusChanged  = "OrderStatusChanged"
	timelineEventCancelled      = "OrderCancelled"
	timelineEventPaymentChanged = "OrderPaymentChanged"
)

// Service управляет жизненным циклом заказа: допустимыми переходами статуса,
// статусом оплаты и отменой. Каждый успешный переход делает ровно одну запись
// в хранилище; зеркало и хранилище обновляются в рамках одной операции.
// Сервис не повторяет неудачные записи: повтор — ответственность вызывающего.
type Service struct {
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	mirror   *Mirror
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
	producer *kafka.Producer // опциональный Kafka producer
}

// NewService создаёт рабочий экземпляр сервиса.
func NewService(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	return &Service{
		orders:   orders,
		outbox:   outbox,
		timeline: timeline,
		mirror:   NewMirror(),
		logger:   logger,
		metrics:  metrics.NewOrderMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис, дополнительно публикующий события в Kafka.
func NewServiceWithKafka(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	producer *kafka.Producer,
	logger *log.Entry,
) *Service {
	svc := NewService(orders, outbox, timeline, logger)
	svc.producer = producer
	return svc
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	return &Service{
		orders:   orders,
		outbox:   outbox,
		timeline: timeline,
		mirror:   NewMirror(),
		logger:   logger,
	}
}

// Get возвращает заказ, предпочитая более свежую зеркальную версию.
func (s *Service) Get(orderID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		if cached, ok := s.mirror.Get(orderID); ok {
			return cached, nil
		}
		return domain.Order{}, err
	}
	if cached, ok := s.mirror.Get(orderID); ok && cached.Version >= order.Version {
		return cached, nil
	}
	s.mirror.Put(order)
	return order, nil
}

// ListByUser возвращает заказы покупателя с наложенным зеркалом, чтобы
// список не отставал от только что применённых переходов.
func (s *Service) ListByUser(userID string, limit int) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(userID, limit)
	if err != nil {
		return nil, err
	}
	return s.mirror.Overlay(orders), nil
}

// Track добавляет только что созданный заказ в зеркало.
func (s *Service) Track(order domain.Order) {
	s.mirror.Put(order)
}

// CanCancel сообщает, доступна ли отмена заказа.
func (s *Service) CanCancel(orderID string) (bool, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return false, err
	}
	return order.CanCancel(), nil
}

// Advance переводит заказ в следующий статус. Разрешён только непосредственный
// преемник happy path либо отмена из отменяемого статуса; любой другой запрос
// завершается ErrInvalidTransition и не меняет заказ.
func (s *Service) Advance(orderID string, next domain.OrderStatus) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordTransitionDuration(time.Since(start))
		}
	}()

	order, err := s.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !order.Status.CanAdvanceTo(next) {
		if s.metrics != nil {
			s.metrics.RecordRejectedTransition()
		}
		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"from":     order.Status,
			"to":       next,
		}).Warn("status transition rejected")
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, next)
	}

	eventType := timelineEventStatusChanged
	if next == domain.OrderStatusCancelled {
		eventType = timelineEventCancelled
	}

	updated, err := s.applyStatus(order, next, eventType, "")
	if err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(string(next))
		if next == domain.OrderStatusCancelled {
			s.metrics.RecordCancelled()
		}
	}
	return updated, nil
}

// Cancel отменяет заказ, если текущий статус это допускает.
func (s *Service) Cancel(orderID, reason string) (domain.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !order.CanCancel() {
		if s.metrics != nil {
			s.metrics.RecordRejectedTransition()
		}
		return domain.Order{}, fmt.Errorf("%w: cancel from %s", domain.ErrInvalidTransition, order.Status)
	}

	updated, err := s.applyStatus(order, domain.OrderStatusCancelled, timelineEventCancelled, reason)
	if err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(string(domain.OrderStatusCancelled))
		s.metrics.RecordCancelled()
	}
	return updated, nil
}

// SetPaymentStatus меняет статус оплаты — независимую от статуса заказа ось.
// Зеркало обновляется оптимистично до завершения удалённой записи и
// откатывается к прежнему значению, если запись не удалась.
func (s *Service) SetPaymentStatus(orderID string, next domain.PaymentStatus) (domain.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	updated := order
	updated.PaymentStatus = next
	updated.UpdatedAt = now

	// Оптимистичное применение: читатели видят новое значение сразу.
	s.mirror.Put(updated)

	if err := s.orders.SavePaymentStatus(order.ID, next, order.Version, now); err != nil {
		// Откат к состоянию до записи — ни хранилище, ни зеркало не изменились.
		s.mirror.Put(order)
		if s.metrics != nil {
			s.metrics.RecordRollback()
		}
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist payment status")
		return domain.Order{}, err
	}

	updated.Version = order.Version + 1
	s.mirror.Put(updated)

	s.emitEvent(updated, timelineEventPaymentChanged, map[string]interface{}{
		"payment_status": string(next),
		"ts":             now.Format(time.RFC3339Nano),
	})
	s.publishOrderEvent(kafka.EventTypeOrderPaymentChanged, updated, map[string]interface{}{
		"payment_status": string(next),
	})

	if s.metrics != nil {
		s.metrics.RecordPaymentUpdate(string(next))
	}
	return updated, nil
}

// applyStatus выполняет двухфазное применение перехода: вычислить следующее
// состояние, записать в хранилище, зафиксировать либо откатить зеркало.
func (s *Service) applyStatus(order domain.Order, next domain.OrderStatus, eventType, reason string) (domain.Order, error) {
	now := time.Now().UTC()
	updated := order
	updated.Status = next
	updated.UpdatedAt = now

	s.mirror.Put(updated)

	if err := s.orders.SaveStatus(order.ID, next, order.Version, now); err != nil {
		s.mirror.Put(order)
		if s.metrics != nil {
			s.metrics.RecordRollback()
		}
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"to":       next,
		}).Error("failed to persist status")
		return domain.Order{}, err
	}

	updated.Version = order.Version + 1
	s.mirror.Put(updated)

	payload := map[string]interface{}{
		"status": string(next),
		"ts":     now.Format(time.RFC3339Nano),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	s.emitEvent(updated, eventType, payload)

	kafkaType := kafka.EventTypeOrderStatusChanged
	if next == domain.OrderStatusCancelled {
		kafkaType = kafka.EventTypeOrderCancelled
	}
	s.publishOrderEvent(kafkaType, updated, map[string]interface{}{
		"reason": reason,
	})

	return updated, nil
}

// emitEvent кладёт событие в outbox и историю заказа. Ошибки этих записей
// логируются, но не отменяют уже применённый переход.
func (s *Service) emitEvent(order domain.Order, eventType string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["order_id"] = order.ID

	if s.outbox != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Error("marshal event failed")
		} else {
			msg := domain.OutboxMessage{
				AggregateType: "order",
				AggregateID:   order.ID,
				EventType:     eventType,
				Payload:       data,
			}
			if _, err := s.outbox.Enqueue(msg); err != nil {
				s.logger.WithError(err).WithFields(log.Fields{
					"order_id": order.ID,
					"event":    eventType,
				}).Error("enqueue event failed")
			}
		}
	}

	if s.timeline != nil {
		reason, _ := payload["reason"].(string)
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     eventType,
			Reason:   reason,
			Occurred: order.UpdatedAt,
		}
		if err := s.timeline.Append(event); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Warn("append timeline event failed")
		}
	}
}

// publishOrderEvent публикует событие заказа в Kafka (если producer настроен).
func (s *Service) publishOrderEvent(eventType kafka.EventType, order domain.Order, metadata map[string]interface{}) {
	if s.producer == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), metadata)
	if err := s.producer.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		// Kafka опциональна: ошибка публикации не отменяет переход.
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event to kafka")
	}
}

// Timeline возвращает историю заказа.
func (s *Service) Timeline(orderID string) ([]domain.TimelineEvent, error) {
	if s.timeline == nil {
		return nil, nil
	}
	return s.timeline.List(orderID)
}
