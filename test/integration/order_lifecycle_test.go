package integration

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/service/checkout"
	"github.com/nikitagorshkov/farmmarket/internal/service/lifecycle"
	"github.com/nikitagorshkov/farmmarket/internal/service/outbox"
	"github.com/nikitagorshkov/farmmarket/internal/storage/memory"
)

// capturingPublisher собирает опубликованные события вместо реального брокера.
type capturingPublisher struct {
	published []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(event domain.OutboxMessage) error {
	p.published = append(p.published, event)
	return nil
}

// OrderLifecycleTestSuite тестирует полный жизненный цикл заказа:
// оформление из корзины, оплату, продвижение по статусам, отмену
// и доставку событий через transactional outbox.
type OrderLifecycleTestSuite struct {
	suite.Suite
	products  domain.ProductRepository
	orders    domain.OrderRepository
	outboxRep domain.OutboxRepository
	timeline  domain.TimelineRepository
	lifecycle *lifecycle.Service
	checkout  *checkout.Service
	publisher *capturingPublisher
	worker    *outbox.Worker
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.products = memory.NewProductRepository()
	suite.orders = memory.NewOrderRepository()
	suite.outboxRep = memory.NewOutboxRepository()
	suite.timeline = memory.NewTimelineRepository()

	suite.lifecycle = lifecycle.NewServiceWithoutMetrics(
		suite.orders,
		suite.outboxRep,
		suite.timeline,
		logger,
	)
	suite.checkout = checkout.NewServiceWithoutMetrics(
		suite.products,
		suite.orders,
		suite.outboxRep,
		suite.timeline,
		suite.lifecycle,
		logger,
	)

	suite.publisher = &capturingPublisher{}
	suite.worker = outbox.NewWorker(
		suite.outboxRep,
		suite.publisher,
		outbox.WithLogger(logger),
	)

	suite.seedCatalog()
}

func (suite *OrderLifecycleTestSuite) seedCatalog() {
	promo := int64(9900)
	catalog := []domain.Product{
		{
			ID:             "prod-honey",
			Name:           "Горный мёд",
			Category:       "pantry",
			BasePriceMinor: 54900,
			PromotionType:  domain.PromotionNone,
			Stock:          20,
		},
		{
			ID:                  "prod-figs",
			Name:                "Инжир свежий",
			Category:            "fruit",
			BasePriceMinor:      12900,
			PromotionType:       domain.PromotionFlashsale,
			PromotionPriceMinor: &promo,
			Stock:               50,
		},
	}
	for _, p := range catalog {
		require.NoError(suite.T(), suite.products.Create(p))
	}
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	// 1. Собираем корзину и оформляем заказ
	cart := domain.NewCart()
	honey, err := suite.products.Get("prod-honey")
	require.NoError(suite.T(), err)
	figs, err := suite.products.Get("prod-figs")
	require.NoError(suite.T(), err)

	cart.AddItem(honey, 1)
	cart.AddItem(figs, 2)

	order, err := suite.checkout.PlaceOrder(checkout.Request{
		UserID:          "user-123",
		Cart:            cart,
		ShippingAddress: "Тверская 1, Москва",
		PaymentMethod:   "card",
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusPending, order.Status)
	require.Equal(suite.T(), domain.PaymentStatusUnpaid, order.PaymentStatus)
	// Мёд по базовой цене, инжир по промо: 54900 + 2*9900
	require.Equal(suite.T(), int64(74700), order.AmountMinor)
	require.Equal(suite.T(), domain.ShippingFeeMinor, order.ShippingMinor)
	require.Equal(suite.T(), 0, cart.Len()) // Корзина очищена после оформления

	orderID := order.ID

	// 2. Оплачиваем
	paid, err := suite.lifecycle.SetPaymentStatus(orderID, domain.PaymentStatusPaid)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.PaymentStatusPaid, paid.PaymentStatus)

	// 3. Продвигаем заказ до доставки
	for _, next := range []domain.OrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		updated, err := suite.lifecycle.Advance(orderID, next)
		require.NoError(suite.T(), err)
		require.Equal(suite.T(), next, updated.Status)
	}

	// 4. Проверяем timeline: создание, оплата, четыре смены статуса
	events, err := suite.lifecycle.Timeline(orderID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), events, 6)
	require.Equal(suite.T(), "OrderCreated", events[0].Type)

	// 5. Доставленный заказ отменить уже нельзя
	ok, err := suite.lifecycle.CanCancel(orderID)
	require.NoError(suite.T(), err)
	require.False(suite.T(), ok)
}

func (suite *OrderLifecycleTestSuite) TestOrderCancellation() {
	orderID := suite.placeOrder("user-789")

	_, err := suite.lifecycle.Advance(orderID, domain.OrderStatusConfirmed)
	require.NoError(suite.T(), err)

	cancelled, err := suite.lifecycle.Cancel(orderID, "Customer changed mind")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusCancelled, cancelled.Status)

	// Проверяем timeline-событие отмены
	events, err := suite.lifecycle.Timeline(orderID)
	require.NoError(suite.T(), err)
	hasCancel := false
	for _, event := range events {
		if event.Type == "OrderCancelled" {
			hasCancel = true
			require.Equal(suite.T(), "Customer changed mind", event.Reason)
		}
	}
	require.True(suite.T(), hasCancel, "timeline should contain OrderCancelled event")
}

func (suite *OrderLifecycleTestSuite) TestCancellationForbiddenAfterShipment() {
	orderID := suite.placeOrder("user-456")

	for _, next := range []domain.OrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
	} {
		_, err := suite.lifecycle.Advance(orderID, next)
		require.NoError(suite.T(), err)
	}

	_, err := suite.lifecycle.Cancel(orderID, "too late")
	require.ErrorIs(suite.T(), err, domain.ErrInvalidTransition)

	order, err := suite.lifecycle.Get(orderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusShipped, order.Status)
}

func (suite *OrderLifecycleTestSuite) TestOutboxDeliversLifecycleEvents() {
	orderID := suite.placeOrder("user-outbox")

	_, err := suite.lifecycle.Advance(orderID, domain.OrderStatusConfirmed)
	require.NoError(suite.T(), err)
	_, err = suite.lifecycle.SetPaymentStatus(orderID, domain.PaymentStatusPaid)
	require.NoError(suite.T(), err)

	suite.worker.ProcessOnce(context.Background())

	// Создание, смена статуса и смена оплаты должны дойти до публикации
	require.Len(suite.T(), suite.publisher.published, 3)
	types := make(map[string]int)
	for _, msg := range suite.publisher.published {
		types[msg.EventType]++
		require.Equal(suite.T(), orderID, msg.AggregateID)
	}
	require.Equal(suite.T(), 1, types["OrderCreated"])
	require.Equal(suite.T(), 1, types["OrderStatusChanged"])
	require.Equal(suite.T(), 1, types["OrderPaymentChanged"])

	// Backlog пуст: повторный проход ничего не публикует
	suite.worker.ProcessOnce(context.Background())
	require.Len(suite.T(), suite.publisher.published, 3)
}

// Вспомогательные методы

func (suite *OrderLifecycleTestSuite) placeOrder(userID string) string {
	cart := domain.NewCart()
	honey, err := suite.products.Get("prod-honey")
	require.NoError(suite.T(), err)
	cart.AddItem(honey, 1)

	order, err := suite.checkout.PlaceOrder(checkout.Request{
		UserID:          userID,
		Cart:            cart,
		ShippingAddress: "Невский проспект 10, Санкт-Петербург",
		PaymentMethod:   "card",
	})
	require.NoError(suite.T(), err)
	return order.ID
}

func TestOrderLifecycle(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
