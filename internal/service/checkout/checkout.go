// Package checkout оформляет заказ из корзины: проверяет остатки,
// формирует снимок позиций и создаёт заказ в состоянии pending/unpaid.
package checkout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/messaging/kafka"
	"github.com/nikitagorshkov/farmmarket/internal/metrics"
	"github.com/nikitagorshkov/farmmarket/internal/service/lifecycle"
)

const timelineEventCreated = "OrderCreated"

// Request описывает параметры оформления заказа.
type Request struct {
	UserID          string
	Cart            *domain.Cart
	ShippingAddress string
	PaymentMethod   string
	Notes           string
}

// Service — сервис оформления заказов.
type Service struct {
	products  domain.ProductRepository
	orders    domain.OrderRepository
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	lifecycle *lifecycle.Service
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
	producer  *kafka.Producer
}

// NewService создаёт рабочий экземпляр сервиса.
func NewService(
	products domain.ProductRepository,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	life *lifecycle.Service,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Service{
		products:  products,
		orders:    orders,
		outbox:    outbox,
		timeline:  timeline,
		lifecycle: life,
		logger:    logger,
		metrics:   metrics.NewOrderMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис, дополнительно публикующий события в Kafka.
func NewServiceWithKafka(
	products domain.ProductRepository,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	life *lifecycle.Service,
	producer *kafka.Producer,
	logger *log.Entry,
) *Service {
	svc := NewService(products, orders, outbox, timeline, life, logger)
	svc.producer = producer
	return svc
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	products domain.ProductRepository,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	life *lifecycle.Service,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Service{
		products:  products,
		orders:    orders,
		outbox:    outbox,
		timeline:  timeline,
		lifecycle: life,
		logger:    logger,
	}
}

// PlaceOrder превращает корзину в заказ. Позиции копируются по зафиксированным
// в корзине ценам, остатки проверяются на момент оформления. Корзина
// очищается только после успешной записи заказа.
func (s *Service) PlaceOrder(req Request) (domain.Order, error) {
	if req.Cart == nil || req.Cart.Len() == 0 {
		return domain.Order{}, domain.ErrCartEmpty
	}
	if req.UserID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}
	if req.ShippingAddress == "" {
		return domain.Order{}, domain.ErrAddressRequired
	}

	lines := req.Cart.Items()
	if err := s.checkStock(lines); err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	totals := req.Cart.Totals()

	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		PaymentMethod:   req.PaymentMethod,
		AmountMinor:     totals.SubtotalMinor,
		ShippingMinor:   totals.ShippingFeeMinor,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  line.ProductID,
			Name:       line.Name,
			Qty:        line.Quantity,
			PriceMinor: line.UnitPriceMinor,
			CreatedAt:  now,
		})
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, fmt.Errorf("order validation failed: %w", errs[0])
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order")
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.emitCreated(order)
	if s.lifecycle != nil {
		s.lifecycle.Track(order)
	}
	req.Cart.Clear()

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"amount_minor": order.AmountMinor,
		"items":        len(order.Items),
	}).Info("order placed")

	return order, nil
}

// checkStock сверяет каждую позицию корзины с каталогом.
func (s *Service) checkStock(lines []domain.LineItem) error {
	for _, line := range lines {
		product, err := s.products.Get(line.ProductID)
		if err != nil {
			return fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		if product.Stock < line.Quantity {
			return fmt.Errorf("%w: %s (have %d, want %d)",
				domain.ErrInsufficientStock, product.Name, product.Stock, line.Quantity)
		}
	}
	return nil
}

// emitCreated кладёт событие о создании заказа в outbox и историю.
// Ошибки записи событий не отменяют уже созданный заказ.
func (s *Service) emitCreated(order domain.Order) {
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"amount_minor": order.AmountMinor,
		"ts":           order.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).Error("marshal created event failed")
		return
	}

	if s.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   order.ID,
			EventType:     timelineEventCreated,
			Payload:       payload,
		}
		if _, err := s.outbox.Enqueue(msg); err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue created event failed")
		}
	}

	if s.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     timelineEventCreated,
			Occurred: order.CreatedAt,
		}
		if err := s.timeline.Append(event); err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("append timeline event failed")
		}
	}

	if s.producer != nil {
		event := kafka.NewOrderEvent(kafka.EventTypeOrderCreated, order.ID, order.UserID, string(order.Status), map[string]interface{}{
			"amount_minor": order.AmountMinor,
		})
		if err := s.producer.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order event to kafka")
		}
	}
}
