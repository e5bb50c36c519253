package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/repository"
)

type MenuHandler struct {
	menu   *repository.MenuRepository
	logger *zap.Logger
}

func NewMenuHandler(menu *repository.MenuRepository, logger *zap.Logger) *MenuHandler {
	return &MenuHandler{
		menu:   menu,
		logger: logger,
	}
}

func (h *MenuHandler) List(c *gin.Context) {
	items, err := h.menu.List(c.Request.Context(), repository.MenuQuery{
		CategoryID: c.Query("category"),
		Keyword:    c.Query("keyword"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *MenuHandler) Featured(c *gin.Context) {
	items, err := h.menu.Featured(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *MenuHandler) Categories(c *gin.Context) {
	cats, err := h.menu.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *MenuHandler) Offers(c *gin.Context) {
	offers, err := h.menu.Offers(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (h *MenuHandler) GetItem(c *gin.Context) {
	item, err := h.menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
