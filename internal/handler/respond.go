package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/domain"
)

// statusFor maps domain errors onto HTTP statuses. Anything unmapped is
// an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrShopNotSelected):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrMenuItemNotFound),
		errors.Is(err, domain.ErrRedemptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRedemptionState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrItemUnavailable),
		errors.Is(err, domain.ErrItemNotRedeemable),
		errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	requestID := c.GetString("request_id")

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{
			"error":      "internal error",
			"request_id": requestID,
		})
		return
	}

	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": requestID,
	})
}

// userID reads the authenticated subject set by the auth middleware.
func userID(c *gin.Context) string {
	return c.GetString("user_id")
}
