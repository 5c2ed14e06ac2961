package domain

import "time"

// OrderRepository — шлюз к хранилищу заказов. Все записи условные:
// несовпадение версии возвращает ErrOrderVersionConflict, отсутствующий
// заказ — ErrOrderNotFound. Неудачная запись не оставляет частичного состояния.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если ID уже занят.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы покупателя, новые первыми;
	// limit > 0 ограничивает выборку.
	ListByUser(userID string, limit int) ([]Order, error)
	// SaveStatus условно обновляет статус заказа при совпадении версии.
	SaveStatus(id string, status OrderStatus, version int64, updatedAt time.Time) error
	// SavePaymentStatus условно обновляет статус оплаты при совпадении версии.
	SavePaymentStatus(id string, status PaymentStatus, version int64, updatedAt time.Time) error
}

// ProductFilter ограничивает выборку каталога. Нулевые значения полей
// означают отсутствие фильтра.
type ProductFilter struct {
	Promotion PromotionType
	Category  string
	Limit     int
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	// Create сохраняет товар каталога.
	Create(product Product) error
	// Get возвращает товар или ErrProductNotFound.
	Get(id string) (Product, error)
	// List возвращает товары в порядке каталога с учётом фильтра.
	List(filter ProductFilter) ([]Product, error)
}
