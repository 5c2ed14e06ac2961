package memory

import (
	"sync"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// productRepositoryInMemory хранит каталог в памяти, сохраняя порядок добавления:
// он важен для стабильной выдачи витрин и рекомендаций.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory каталог.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет товар; повторный ID перезаписывает запись без смены позиции.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; !exists {
		r.order = append(r.order, product.ID)
	}
	r.items[product.ID] = cloneProduct(product)
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

// List возвращает товары в порядке каталога с учётом фильтра.
func (r *productRepositoryInMemory) List(filter domain.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		product := r.items[id]
		if filter.Promotion != "" && product.PromotionType != filter.Promotion {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		result = append(result, cloneProduct(product))
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func cloneProduct(src domain.Product) domain.Product {
	dst := src
	if src.PromotionPriceMinor != nil {
		price := *src.PromotionPriceMinor
		dst.PromotionPriceMinor = &price
	}
	return dst
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
