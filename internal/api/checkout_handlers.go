package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/service/checkout"
)

// headerIdempotencyKey защищает оформление заказа от повторной отправки.
const headerIdempotencyKey = "Idempotency-Key"

const idempotencyTTL = 24 * time.Hour

type placeOrderRequest struct {
	UserID          string `json:"user_id"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	Notes           string `json:"notes"`
}

type orderItemResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
	TotalMinor int64  `json:"total_minor"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	AmountMinor     int64               `json:"amount_minor"`
	ShippingMinor   int64               `json:"shipping_minor"`
	ShippingAddress string              `json:"shipping_address"`
	Notes           string              `json:"notes,omitempty"`
	CanCancel       bool                `json:"can_cancel"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o domain.Order) orderResponse {
	out := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		AmountMinor:     o.AmountMinor,
		ShippingMinor:   o.ShippingMinor,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		CanCancel:       o.CanCancel(),
		Items:           make([]orderItemResponse, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		out.Items = append(out.Items, orderItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
			TotalMinor: item.TotalMinor(),
		})
	}
	return out
}

// placeOrder оформляет корзину текущей сессии в заказ. Заголовок
// Idempotency-Key делает повторную отправку той же формы безопасной:
// дубликат получает сохранённый ответ первого запроса.
func (s *Server) placeOrder(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body: " + err.Error()})
		return
	}

	var req placeOrderRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	key := c.GetHeader(headerIdempotencyKey)
	if key != "" && s.idempotency != nil {
		if done := s.beginIdempotent(c, key, raw); done {
			return
		}
	}

	order, err := s.checkout.PlaceOrder(checkout.Request{
		UserID:          req.UserID,
		Cart:            s.sessionCart(c),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		if key != "" && s.idempotency != nil {
			body, _ := json.Marshal(gin.H{"error": err.Error()})
			if markErr := s.idempotency.MarkFailed(key, body, statusForError(err)); markErr != nil {
				s.logger.WithError(markErr).Warn("mark idempotency key failed")
			}
		}
		s.writeError(c, err)
		return
	}

	body, err := json.Marshal(toOrderResponse(order))
	if err != nil {
		s.writeError(c, err)
		return
	}

	if key != "" && s.idempotency != nil {
		if err := s.idempotency.MarkDone(key, body, http.StatusCreated); err != nil {
			s.logger.WithError(err).Warn("mark idempotency key done")
		}
	}

	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// beginIdempotent регистрирует ключ как обрабатываемый. Возвращает true,
// если ответ уже отдан (replay, конфликт или несовпадение формы).
func (s *Server) beginIdempotent(c *gin.Context, key string, raw []byte) bool {
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	record, err := s.idempotency.CreateProcessing(key, hash, time.Now().UTC().Add(idempotencyTTL))
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		if record.Status == domain.IdempotencyStatusProcessing {
			c.JSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is being processed"})
			return true
		}
		// Повтор той же формы: отдаём сохранённый ответ.
		c.Data(record.HTTPStatus, "application/json; charset=utf-8", record.ResponseBody)
		return true
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "idempotency key was used with a different request body",
		})
		return true
	default:
		s.writeError(c, err)
		return true
	}
}

// statusForError повторяет маппинг writeError, но без записи ответа.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrOrderVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrUserRequired),
		errors.Is(err, domain.ErrAddressRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
