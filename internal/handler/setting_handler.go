package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/service"
)

type SettingHandler struct {
	settings *service.SettingService
	logger   *zap.Logger
}

func NewSettingHandler(settings *service.SettingService, logger *zap.Logger) *SettingHandler {
	return &SettingHandler{settings: settings, logger: logger}
}

func (h *SettingHandler) List(c *gin.Context) {
	items, err := h.settings.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *SettingHandler) Get(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Upsert handles PUT /settings/:key
func (h *SettingHandler) Upsert(c *gin.Context) {
	var in model.SettingInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.settings.Upsert(c.Request.Context(), CurrentPrincipal(c), c.Param("key"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SettingHandler) Delete(c *gin.Context) {
	if err := h.settings.Delete(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
