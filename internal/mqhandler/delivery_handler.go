package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"malladmin/internal/events"
	"malladmin/pkg/logger"
	"malladmin/pkg/outbox"
)

type DeliveryMarker interface {
	MarkDelivered(ctx context.Context, id int64) (bool, error)
}

// NotificationDeliveredHandler stamps delivered_at once the
// notification.created event has reached the worker.
type NotificationDeliveredHandler struct {
	notifications DeliveryMarker
	logger        *zap.Logger
}

func NewNotificationDeliveredHandler(notifications DeliveryMarker, logger *zap.Logger) *NotificationDeliveredHandler {
	return &NotificationDeliveredHandler{notifications: notifications, logger: logger}
}

func (h *NotificationDeliveredHandler) HandleNotificationCreated(ctx context.Context, raw json.RawMessage) error {
	var p events.NotificationCreatedPayload
	env, err := outbox.DecodeEnvelope(raw, &p)
	if err != nil {
		return err
	}

	// MarkDelivered only touches undelivered rows, so redeliveries are no-ops.
	delivered, err := h.notifications.MarkDelivered(ctx, p.NotificationID)
	if err != nil {
		return fmt.Errorf("mark notification %d delivered: %w", p.NotificationID, err)
	}
	if !delivered {
		logger.WithTrace(ctx, h.logger).Debug("Notification already delivered or deleted",
			zap.Int64("event_id", env.EventID),
			zap.Int64("notification_id", p.NotificationID),
		)
	}
	return nil
}
