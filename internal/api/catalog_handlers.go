package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// productResponse — карточка товара с вычисленной ценой.
type productResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	PromotionType   string `json:"promotion_type"`
	Stock           int32  `json:"stock"`
	ImageRef        string `json:"image_ref,omitempty"`
	OriginalMinor   int64  `json:"original_minor"`
	EffectiveMinor  int64  `json:"effective_minor"`
	DiscountPercent int    `json:"discount_percent"`
}

func toProductResponse(p domain.Product) productResponse {
	price := domain.ResolvePrice(p)
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		PromotionType:   string(p.PromotionType),
		Stock:           p.Stock,
		ImageRef:        p.ImageRef,
		OriginalMinor:   price.OriginalMinor,
		EffectiveMinor:  price.EffectiveMinor,
		DiscountPercent: price.DiscountPercent,
	}
}

// listProducts отдаёт каталог с фильтрами по акции и категории.
func (s *Server) listProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Category: c.Query("category"),
	}
	if promo := c.Query("promotion"); promo != "" {
		parsed, err := domain.ParsePromotionType(promo)
		if err != nil {
			s.writeError(c, err)
			return
		}
		filter.Promotion = parsed
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	products, err := s.products.List(filter)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

// getProduct отдаёт карточку товара вместе с похожими товарами.
func (s *Server) getProduct(c *gin.Context) {
	product, err := s.products.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	response := gin.H{"product": toProductResponse(product)}

	if s.recommend != nil {
		similar, err := s.recommend.Similar(product.ID, 0, 0)
		if err != nil {
			s.logger.WithError(err).WithField("product_id", product.ID).Warn("similar products lookup failed")
		} else {
			out := make([]productResponse, 0, len(similar))
			for _, p := range similar {
				out = append(out, toProductResponse(p))
			}
			response["similar"] = out
		}
	}

	c.JSON(http.StatusOK, response)
}
