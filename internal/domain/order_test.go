package domain_test

import (
	"testing"
	"time"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:            "order-1",
		UserID:        "user-1",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
		PaymentMethod: "cash_on_delivery",
		AmountMinor:   500,
		Items: []domain.OrderItem{
			{
				ID:         "item-1",
				ProductID:  "p-1",
				Name:       "Tomato",
				Qty:        5,
				PriceMinor: 100,
				CreatedAt:  now,
			},
		},
		ShippingAddress: "Pervomayskaya 12",
		Version:         0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestOrderStatusCanAdvanceTo(t *testing.T) {
	cases := []struct {
		from domain.OrderStatus
		to   domain.OrderStatus
		want bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusConfirmed, true},
		{domain.OrderStatusConfirmed, domain.OrderStatusProcessing, true},
		{domain.OrderStatusProcessing, domain.OrderStatusShipped, true},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},

		// Перескакивание через шаг запрещено.
		{domain.OrderStatusPending, domain.OrderStatusProcessing, false},
		{domain.OrderStatusConfirmed, domain.OrderStatusShipped, false},
		// Возврат назад запрещён.
		{domain.OrderStatusProcessing, domain.OrderStatusConfirmed, false},
		{domain.OrderStatusShipped, domain.OrderStatusPending, false},
		// Терминальные статусы не покидаются.
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPending, false},
		{domain.OrderStatusCancelled, domain.OrderStatusConfirmed, false},

		// Отмена доступна только до отгрузки.
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusConfirmed, domain.OrderStatusCancelled, true},
		{domain.OrderStatusProcessing, domain.OrderStatusCancelled, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderCanCancel(t *testing.T) {
	order := makeOrder()

	for status, want := range map[domain.OrderStatus]bool{
		domain.OrderStatusPending:    true,
		domain.OrderStatusConfirmed:  true,
		domain.OrderStatusProcessing: true,
		domain.OrderStatusShipped:    false,
		domain.OrderStatusDelivered:  false,
		domain.OrderStatusCancelled:  false,
	} {
		order.Status = status
		if got := order.CanCancel(); got != want {
			t.Fatalf("CanCancel(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !domain.OrderStatusDelivered.IsTerminal() || !domain.OrderStatusCancelled.IsTerminal() {
		t.Fatal("delivered and cancelled must be terminal")
	}
	if domain.OrderStatusPending.IsTerminal() || domain.OrderStatusShipped.IsTerminal() {
		t.Fatal("happy-path statuses must not be terminal")
	}
	if _, ok := domain.OrderStatusDelivered.Next(); ok {
		t.Fatal("delivered must not have a successor")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if status, err := domain.ParseOrderStatus(" Shipped "); err != nil || status != domain.OrderStatusShipped {
		t.Fatalf("ParseOrderStatus = %q, %v", status, err)
	}
	if _, err := domain.ParseOrderStatus("teleported"); err == nil {
		t.Fatal("unknown status must be rejected")
	}
}

func TestParsePaymentStatus(t *testing.T) {
	if status, err := domain.ParsePaymentStatus("PAID"); err != nil || status != domain.PaymentStatusPaid {
		t.Fatalf("ParsePaymentStatus = %q, %v", status, err)
	}
	if _, err := domain.ParsePaymentStatus("iou"); err == nil {
		t.Fatal("unknown payment status must be rejected")
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no user",
			mut: func(o *domain.Order) {
				o.UserID = ""
			},
		},
		{
			name: "no address",
			mut: func(o *domain.Order) {
				o.ShippingAddress = ""
			},
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
				o.AmountMinor = 0
			},
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Qty = 0
			},
		},
		{
			name: "price invalid",
			mut: func(o *domain.Order) {
				o.Items[0].PriceMinor = -5
			},
		},
		{
			name: "amount mismatch",
			mut: func(o *domain.Order) {
				o.AmountMinor = 999
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}
