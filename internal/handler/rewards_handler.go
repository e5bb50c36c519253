package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/service"
	"github.com/quickbites/order-service/pkg/middleware"
)

type RewardsHandler struct {
	loyalty *service.LoyaltyService
	logger  *zap.Logger
}

func NewRewardsHandler(loyalty *service.LoyaltyService, logger *zap.Logger) *RewardsHandler {
	return &RewardsHandler{
		loyalty: loyalty,
		logger:  logger,
	}
}

func (h *RewardsHandler) Balance(c *gin.Context) {
	uid := userID(c)
	points, err := h.loyalty.Balance(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, domain.BalanceResponse{UserID: uid, Points: points})
}

func (h *RewardsHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	txns, err := h.loyalty.Transactions(c.Request.Context(), userID(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, domain.TransactionsResponse{
		Transactions: txns,
		AsOf:         time.Now().UTC(),
	})
}

func (h *RewardsHandler) RedeemableItems(c *gin.Context) {
	items, err := h.loyalty.RedeemableItems(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *RewardsHandler) Redeem(c *gin.Context) {
	var req domain.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid redeem request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	red, err := h.loyalty.RedeemItem(c.Request.Context(), userID(c), req.ItemID, req.Quantity)
	middleware.RecordCheckoutOperation("redeem", err == nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, red)
}

func (h *RewardsHandler) Redemptions(c *gin.Context) {
	reds, err := h.loyalty.Redemptions(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": reds})
}

func (h *RewardsHandler) CancelRedemption(c *gin.Context) {
	err := h.loyalty.CancelRedemption(c.Request.Context(), userID(c), c.Param("id"))
	middleware.RecordCheckoutOperation("cancel_redemption", err == nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
