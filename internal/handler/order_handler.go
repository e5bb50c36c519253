package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/service"
	"github.com/quickbites/order-service/internal/session"
	"github.com/quickbites/order-service/pkg/middleware"
)

type OrderHandler struct {
	checkout *service.CheckoutService
	orders   *service.OrderService
	logger   *zap.Logger
}

func NewOrderHandler(checkout *service.CheckoutService, orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		orders:   orders,
		logger:   logger,
	}
}

// Checkout runs the server half of the flow: validate the cart, persist
// the pending order and create a payment intent. The client confirms the
// intent through its payment sheet and then calls ConfirmOrder; fully
// redeemed orders come back already paid.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid checkout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	uid := userID(c)
	ctx := c.Request.Context()

	agg, catalog, err := h.checkout.BuildAggregate(ctx, uid, req.Items)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	shop := session.ShopSelection{
		ShopID:      req.ShopID,
		ShopName:    req.ShopName,
		ShopAddress: req.ShopAddress,
		OrderType:   req.OrderType,
	}

	res, err := h.checkout.Begin(ctx, uid, shop, agg, catalog)
	middleware.RecordCheckoutOperation("checkout", err == nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, domain.CheckoutResponse{
		OrderID:      res.Order.ID,
		OrderNumber:  res.Order.OrderNumber,
		Status:       res.Order.Status,
		AmountDue:    res.AmountDue,
		ClientSecret: res.ClientSecret,
	})
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// ConfirmOrder reports a successful client-side payment confirmation.
// The transition is idempotent, so a retry or a webhook racing this call
// is harmless.
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	orderID := c.Param("id")
	uid := userID(c)
	ctx := c.Request.Context()

	var req confirmRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	if _, err := h.orders.Get(ctx, uid, orderID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	order, err := h.checkout.ConfirmPaid(ctx, orderID, req.PaymentIntentID, "client")
	middleware.RecordCheckoutOperation("confirm", err == nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	details, err := h.orders.Details(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Reorder returns the purchasable lines of a past order as a fresh cart
// payload. Reward lines are dropped and counted.
func (h *OrderHandler) Reorder(c *gin.Context) {
	res, err := h.orders.Reorder(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
