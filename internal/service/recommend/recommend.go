// Package recommend подбирает похожие товары по названию.
package recommend

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// DefaultLimit — число рекомендаций по умолчанию на карточке товара.
const DefaultLimit = 4

// Service подбирает похожие товары, сравнивая названия по длине общей подстроки.
type Service struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис рекомендаций.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "recommend")
	}
	return &Service{products: products, logger: logger}
}

// Similar возвращает до limit товаров, похожих на указанный. Товар сам в
// выдачу не попадает; при limit <= 0 используется DefaultLimit, при
// minScore <= 0 — порог по умолчанию.
func (s *Service) Similar(productID string, limit, minScore int) ([]domain.Product, error) {
	ref, err := s.products.Get(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	catalog, err := s.products.List(domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return domain.FindSimilar(ref, catalog, limit, minScore), nil
}
