package lifecycle

import (
	"sync"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// Mirror — in-memory зеркало заказов, которое UI-слой читает между отправкой
// записи в хранилище и её подтверждением. Обновляется оптимистично до
// завершения удалённой записи и откатывается при её неуспехе, поэтому
// читатель никогда не видит частичного состояния.
type Mirror struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewMirror создаёт пустое зеркало.
func NewMirror() *Mirror {
	return &Mirror{orders: make(map[string]domain.Order)}
}

// Get возвращает заказ из зеркала.
func (m *Mirror) Get(id string) (domain.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	return order, ok
}

// Put помещает заказ в зеркало, замещая прежнее состояние.
func (m *Mirror) Put(order domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.ID] = order
}

// Overlay накладывает зеркальное состояние на список из хранилища:
// заказы, по которым есть более свежая локальная версия, подменяются ею.
func (m *Mirror) Overlay(orders []domain.Order) []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.Order, len(orders))
	for i, order := range orders {
		if cached, ok := m.orders[order.ID]; ok && cached.Version >= order.Version {
			result[i] = cached
			continue
		}
		result[i] = order
	}
	return result
}
