package domain

import "time"

// TimelineEvent описывает событие в истории заказа: смену статуса,
// смену статуса оплаты, отмену.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
