package domain

import (
	"strings"
	"time"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ оформлен, ждёт подтверждения фермером.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — фермер подтвердил заказ.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing — заказ собирается.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен покупателю (терминальный).
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён до отгрузки (терминальный).
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus — независимая от статуса заказа ось оплаты.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// happyPath задаёт линейную последовательность статусов без отмены.
var happyPath = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// ParseOrderStatus разбирает строковый статус заказа.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return status, nil
	default:
		return "", ErrUnknownOrderStatus
	}
}

// ParsePaymentStatus разбирает строковый статус оплаты.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return status, nil
	default:
		return "", ErrUnknownPaymentStatus
	}
}

// Next возвращает следующий статус happy path.
// Для терминальных статусов второй результат — false.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, status := range happyPath {
		if status == s && i+1 < len(happyPath) {
			return happyPath[i+1], true
		}
	}
	return "", false
}

// IsTerminal сообщает, допускает ли статус дальнейшие переходы.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Cancellable сообщает, можно ли отменить заказ из данного статуса.
// После отгрузки отмена недоступна.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	default:
		return false
	}
}

// CanAdvanceTo проверяет допустимость перехода: либо непосредственный
// преемник по happy path, либо отмена из отменяемого статуса. Возврат в
// прошлый статус и перескакивание через шаг запрещены.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return s.Cancellable()
	}
	successor, ok := s.Next()
	return ok && successor == next
}

// OrderItem — неизменяемый снимок позиции корзины на момент оформления.
type OrderItem struct {
	ID         string
	ProductID  string
	Name       string
	Qty        int32
	PriceMinor int64
	CreatedAt  time.Time
}

// TotalMinor возвращает стоимость позиции заказа.
func (i OrderItem) TotalMinor() int64 {
	return int64(i.Qty) * i.PriceMinor
}

// Order агрегирует состояние заказа и его позиции. Позиции копируются из
// корзины при оформлении и после этого не меняются.
type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentMethod   string
	AmountMinor     int64
	ShippingMinor   int64
	Items           []OrderItem
	ShippingAddress string
	Notes           string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanCancel сообщает, доступна ли отмена заказа. Используется и для
// проверки действия, и для решения, показывать ли кнопку отмены.
func (o *Order) CanCancel() bool {
	return o.Status.Cancellable()
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if o.ShippingAddress == "" {
		errs = append(errs, ErrAddressRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.Qty < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += item.TotalMinor()
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
