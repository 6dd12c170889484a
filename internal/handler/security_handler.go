package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/service"
)

type SecurityHandler struct {
	security *service.SecurityService
	logger   *zap.Logger
}

func NewSecurityHandler(security *service.SecurityService, logger *zap.Logger) *SecurityHandler {
	return &SecurityHandler{security: security, logger: logger}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword handles PUT /security/password. Every other session of
// the caller is revoked.
func (h *SecurityHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	revoked, err := h.security.ChangePassword(c.Request.Context(), CurrentPrincipal(c), service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "revoked_sessions": revoked})
}

func (h *SecurityHandler) Sessions(c *gin.Context) {
	items, err := h.security.Sessions(c.Request.Context(), CurrentPrincipal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *SecurityHandler) RevokeSession(c *gin.Context) {
	if err := h.security.RevokeSession(c.Request.Context(), CurrentPrincipal(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AuditLogs handles GET /security/audit-logs?action=&resource=&user_id=
func (h *SecurityHandler) AuditLogs(c *gin.Context) {
	p, ok := listParams(c, h.logger, "action", "resource", "user_id")
	if !ok {
		return
	}
	page, err := h.security.AuditLogs(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
