package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/payment"
	"github.com/quickbites/order-service/internal/service"
)

// WebhookHandler receives the payment provider's signed events. It sits
// outside the authenticated API group; the signature is the
// authentication.
type WebhookHandler struct {
	checkout *service.CheckoutService
	secret   string
	logger   *zap.Logger
}

func NewWebhookHandler(checkout *service.CheckoutService, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		checkout: checkout,
		secret:   secret,
		logger:   logger,
	}
}

func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	// Verification runs over the raw body; binding would re-serialize it.
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := payment.VerifyEvent(payload, c.GetHeader(payment.SignatureHeader), h.secret, payment.DefaultTolerance, time.Now())
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) || errors.Is(err, payment.ErrStaleEvent) {
			h.logger.Warn("Rejected webhook event", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
		return
	}

	if err := h.checkout.HandlePaymentEvent(c.Request.Context(), event); err != nil {
		// Non-2xx makes the provider redeliver; the paid transition is
		// idempotent so retries are safe.
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
