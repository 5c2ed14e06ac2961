package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

type cartLineResponse struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int32  `json:"quantity"`
	TotalMinor     int64  `json:"total_minor"`
	ImageRef       string `json:"image_ref,omitempty"`
}

type cartResponse struct {
	Items            []cartLineResponse `json:"items"`
	SubtotalMinor    int64              `json:"subtotal_minor"`
	ShippingFeeMinor int64              `json:"shipping_fee_minor"`
	TotalMinor       int64              `json:"total_minor"`
}

func toCartResponse(c *domain.Cart) cartResponse {
	items := c.Items()
	totals := c.Totals()

	out := cartResponse{
		Items:            make([]cartLineResponse, 0, len(items)),
		SubtotalMinor:    totals.SubtotalMinor,
		ShippingFeeMinor: totals.ShippingFeeMinor,
		TotalMinor:       totals.TotalMinor,
	}
	for _, li := range items {
		out.Items = append(out.Items, cartLineResponse{
			ProductID:      li.ProductID,
			Name:           li.Name,
			UnitPriceMinor: li.UnitPriceMinor,
			Quantity:       li.Quantity,
			TotalMinor:     li.TotalMinor(),
			ImageRef:       li.ImageRef,
		})
	}
	return out
}

func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, toCartResponse(s.sessionCart(c)))
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int32  `json:"quantity"`
}

// addCartItem кладёт товар в корзину по действующей на этот момент цене.
func (s *Server) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := s.products.Get(req.ProductID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	sessionCart := s.sessionCart(c)
	sessionCart.AddItem(product, req.Quantity)
	c.JSON(http.StatusOK, toCartResponse(sessionCart))
}

// Мутации по неизвестной позиции — no-op: корзина возвращается как есть.

func (s *Server) increaseCartItem(c *gin.Context) {
	sessionCart := s.sessionCart(c)
	sessionCart.IncreaseQuantity(c.Param("id"))
	c.JSON(http.StatusOK, toCartResponse(sessionCart))
}

func (s *Server) decreaseCartItem(c *gin.Context) {
	sessionCart := s.sessionCart(c)
	sessionCart.DecreaseQuantity(c.Param("id"))
	c.JSON(http.StatusOK, toCartResponse(sessionCart))
}

func (s *Server) removeCartItem(c *gin.Context) {
	sessionCart := s.sessionCart(c)
	sessionCart.RemoveItem(c.Param("id"))
	c.JSON(http.StatusOK, toCartResponse(sessionCart))
}
