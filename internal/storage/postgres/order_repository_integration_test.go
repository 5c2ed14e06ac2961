package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

func integrationOrder(userID string) domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	orderID := uuid.NewString()
	return domain.Order{
		ID:            orderID,
		UserID:        userID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
		PaymentMethod: "card",
		AmountMinor:   500,
		ShippingMinor: domain.ShippingFeeMinor,
		Items: []domain.OrderItem{
			{ID: uuid.NewString(), ProductID: "p-1", Name: "Tomato", Qty: 5, PriceMinor: 100, CreatedAt: now},
		},
		ShippingAddress: "Sadovaya 12",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestOrderRepository_Integration_CreateAndGet(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := integrationOrder("u-1")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	got, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.UserID != "u-1" || got.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Tomato" {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if got.ShippingMinor != domain.ShippingFeeMinor {
		t.Fatalf("shipping = %d, want %d", got.ShippingMinor, domain.ShippingFeeMinor)
	}
}

func TestOrderRepository_Integration_SaveStatusVersionConflict(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := integrationOrder("u-2")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	now := time.Now().UTC()
	if err := repo.SaveStatus(order.ID, domain.OrderStatusConfirmed, 0, now); err != nil {
		t.Fatalf("save status: %v", err)
	}

	// Повторная запись с устаревшей версией отвергается.
	err := repo.SaveStatus(order.ID, domain.OrderStatusProcessing, 0, now)
	if !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("err = %v, want ErrOrderVersionConflict", err)
	}

	got, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusConfirmed || got.Version != 1 {
		t.Fatalf("unexpected order after conflict: status=%s version=%d", got.Status, got.Version)
	}
}

func TestOrderRepository_Integration_SaveStatusUnknownOrder(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	err := repo.SaveStatus(uuid.NewString(), domain.OrderStatusConfirmed, 0, time.Now().UTC())
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestOrderRepository_Integration_ListByUser(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	first := integrationOrder("u-3")
	second := integrationOrder("u-3")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	second.UpdatedAt = second.CreatedAt

	for _, o := range []domain.Order{first, second} {
		if err := repo.Create(o); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	orders, err := repo.ListByUser("u-3", 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != second.ID {
		t.Fatal("expected newest order first")
	}
}
