package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// writeError переводит доменные ошибки в HTTP-статусы.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderVersionConflict),
		errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrUserRequired),
		errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrUnknownOrderStatus),
		errors.Is(err, domain.ErrUnknownPaymentStatus),
		errors.Is(err, domain.ErrUnknownPromotionType):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
