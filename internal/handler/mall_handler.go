package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/service"
)

type MallHandler struct {
	malls  *service.MallService
	logger *zap.Logger
}

func NewMallHandler(malls *service.MallService, logger *zap.Logger) *MallHandler {
	return &MallHandler{malls: malls, logger: logger}
}

func (h *MallHandler) List(c *gin.Context) {
	p, ok := listParams(c, h.logger, "city")
	if !ok {
		return
	}
	page, err := h.malls.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *MallHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	m, err := h.malls.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MallHandler) Create(c *gin.Context) {
	var in model.MallInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.malls.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MallHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in model.MallInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.malls.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /malls/:id. A mall that still has shops answers 409.
func (h *MallHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.malls.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
