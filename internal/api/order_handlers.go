package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

// listOrders отдаёт заказы пользователя, новые первыми.
func (s *Server) listOrders(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	orders, err := s.lifecycle.ListByUser(userID, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// getOrder отдаёт заказ вместе с историей событий.
func (s *Server) getOrder(c *gin.Context) {
	order, err := s.lifecycle.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	events, err := s.lifecycle.Timeline(order.ID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("timeline lookup failed")
		events = nil
	}

	timeline := make([]timelineEventResponse, 0, len(events))
	for _, e := range events {
		timeline = append(timeline, timelineEventResponse{
			Type:     e.Type,
			Reason:   e.Reason,
			Occurred: e.Occurred,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"order":    toOrderResponse(order),
		"timeline": timeline,
	})
}

type advanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// advanceOrder переводит заказ в следующий статус happy path.
func (s *Server) advanceOrder(c *gin.Context) {
	var req advanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}

	order, err := s.lifecycle.Advance(c.Param("id"), next)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) cancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	// Тело с причиной опционально.
	_ = c.ShouldBindJSON(&req)

	order, err := s.lifecycle.Cancel(c.Param("id"), req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
}

type paymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) setPaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}

	order, err := s.lifecycle.SetPaymentStatus(c.Param("id"), next)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
}
