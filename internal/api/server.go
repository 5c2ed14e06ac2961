// Package api — HTTP/JSON интерфейс маркетплейса.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/nikitagorshkov/farmmarket/internal/cart"
	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/service/checkout"
	"github.com/nikitagorshkov/farmmarket/internal/service/lifecycle"
	"github.com/nikitagorshkov/farmmarket/internal/service/recommend"
)

// headerSessionID несёт идентификатор покупательской сессии для корзины.
const headerSessionID = "X-Session-ID"

// Deps собирает зависимости HTTP-слоя.
type Deps struct {
	Products    domain.ProductRepository
	Carts       *cart.Store
	Checkout    *checkout.Service
	Lifecycle   *lifecycle.Service
	Recommend   *recommend.Service
	Idempotency domain.IdempotencyRepository
	Logger      *log.Entry
}

// Server маршрутизирует запросы витрины, корзины и заказов.
type Server struct {
	router      *gin.Engine
	products    domain.ProductRepository
	carts       *cart.Store
	checkout    *checkout.Service
	lifecycle   *lifecycle.Service
	recommend   *recommend.Service
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

// NewServer создаёт сервер и регистрирует маршруты.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "api")
	}

	s := &Server{
		products:    deps.Products,
		carts:       deps.Carts,
		checkout:    deps.Checkout,
		lifecycle:   deps.Lifecycle,
		recommend:   deps.Recommend,
		idempotency: deps.Idempotency,
		logger:      logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/products", s.listProducts)
		apiGroup.GET("/products/:id", s.getProduct)

		cartGroup := apiGroup.Group("/cart", s.requireSession)
		{
			cartGroup.GET("", s.getCart)
			cartGroup.POST("/items", s.addCartItem)
			cartGroup.POST("/items/:id/increase", s.increaseCartItem)
			cartGroup.POST("/items/:id/decrease", s.decreaseCartItem)
			cartGroup.DELETE("/items/:id", s.removeCartItem)
		}

		apiGroup.POST("/checkout", s.requireSession, s.placeOrder)

		apiGroup.GET("/orders", s.listOrders)
		apiGroup.GET("/orders/:id", s.getOrder)
		apiGroup.POST("/orders/:id/advance", s.advanceOrder)
		apiGroup.POST("/orders/:id/cancel", s.cancelOrder)
		apiGroup.POST("/orders/:id/payment", s.setPaymentStatus)
	}

	s.router = router
	return s
}

// Handler возвращает корневой http.Handler сервера.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requireSession требует заголовок сессии для операций с корзиной.
func (s *Server) requireSession(c *gin.Context) {
	if c.GetHeader(headerSessionID) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "missing " + headerSessionID + " header",
		})
		return
	}
	c.Next()
}

func (s *Server) sessionCart(c *gin.Context) *domain.Cart {
	return s.carts.Get(c.GetHeader(headerSessionID))
}
