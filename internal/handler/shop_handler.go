package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/service"
)

type ShopHandler struct {
	shops  *service.ShopService
	logger *zap.Logger
}

func NewShopHandler(shops *service.ShopService, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{shops: shops, logger: logger}
}

// List handles GET /shops?mall_id=&category=&status=&q=
func (h *ShopHandler) List(c *gin.Context) {
	p, ok := listParams(c, h.logger, "mall_id", "category")
	if !ok {
		return
	}
	page, err := h.shops.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ShopHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s, err := h.shops.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *ShopHandler) Create(c *gin.Context) {
	var in model.ShopInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.shops.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *ShopHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in model.ShopInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.shops.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *ShopHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.shops.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
