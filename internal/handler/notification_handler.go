package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List handles GET /notifications?read=&type= for the caller.
func (h *NotificationHandler) List(c *gin.Context) {
	p, ok := listParams(c, h.logger, "read", "type")
	if !ok {
		return
	}
	page, err := h.notifications.ListForUser(c.Request.Context(), CurrentPrincipal(c).UserID, p)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), CurrentPrincipal(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// Create handles POST /notifications. Without user_id the notification is
// sent to every active user.
func (h *NotificationHandler) Create(c *gin.Context) {
	var in model.NotificationInput
	if !bindJSON(c, &in) {
		return
	}
	created, err := h.notifications.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": created, "count": len(created)})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), CurrentPrincipal(c).UserID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), CurrentPrincipal(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), CurrentPrincipal(c).UserID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
