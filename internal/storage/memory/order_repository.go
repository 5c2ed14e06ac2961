package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация шлюза заказов.
// Используется в разработке и тестах вместо удалённого хранилища.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByUser возвращает заказы покупателя, новые первыми.
func (r *orderRepositoryInMemory) ListByUser(userID string, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.UserID != userID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// SaveStatus условно меняет статус заказа (optimistic locking по версии).
func (r *orderRepositoryInMemory) SaveStatus(id string, status domain.OrderStatus, version int64, updatedAt time.Time) error {
	return r.update(id, version, func(order *domain.Order) {
		order.Status = status
		order.UpdatedAt = updatedAt
	})
}

// SavePaymentStatus условно меняет статус оплаты заказа.
func (r *orderRepositoryInMemory) SavePaymentStatus(id string, status domain.PaymentStatus, version int64, updatedAt time.Time) error {
	return r.update(id, version, func(order *domain.Order) {
		order.PaymentStatus = status
		order.UpdatedAt = updatedAt
	})
}

func (r *orderRepositoryInMemory) update(id string, version int64, mutate func(*domain.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != version {
		return domain.ErrOrderVersionConflict
	}

	mutate(&current)
	current.Version++
	r.items[id] = current
	return nil
}

// cloneOrder защищает хранилище от мутаций снаружи через общий срез позиций.
func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Items = make([]domain.OrderItem, len(src.Items))
	copy(dst.Items, src.Items)
	return dst
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
