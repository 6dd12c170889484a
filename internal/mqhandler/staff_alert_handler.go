package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"malladmin/internal/events"
	"malladmin/internal/model"
	"malladmin/pkg/logger"
	"malladmin/pkg/outbox"
	"malladmin/pkg/rbac"
)

const staffAlertHandler = "staff_alert"

// StaffDirectory lists the users that receive operational alerts.
type StaffDirectory interface {
	ActiveIDs(ctx context.Context, roles ...string) ([]int64, error)
}

type Notifier interface {
	Notify(ctx context.Context, userIDs []int64, title, message, kind string) ([]model.Notification, error)
}

// Deduper guards against processing a redelivered event twice.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler string, eventID int64) bool
	Release(ctx context.Context, handler string, eventID int64)
}

// StaffAlertHandler turns domain events into in-app notifications for
// every active admin and manager.
type StaffAlertHandler struct {
	staff    StaffDirectory
	notifier Notifier
	deduper  Deduper
	logger   *zap.Logger
}

func NewStaffAlertHandler(staff StaffDirectory, notifier Notifier, deduper Deduper, logger *zap.Logger) *StaffAlertHandler {
	return &StaffAlertHandler{
		staff:    staff,
		notifier: notifier,
		deduper:  deduper,
		logger:   logger,
	}
}

type alert struct {
	title   string
	message string
	kind    string
}

func (h *StaffAlertHandler) HandleBookingCreated(ctx context.Context, raw json.RawMessage) error {
	var p events.BookingCreatedPayload
	env, err := outbox.DecodeEnvelope(raw, &p)
	if err != nil {
		return err
	}
	return h.alert(ctx, env, alert{
		title:   "New booking",
		message: fmt.Sprintf("Booking #%d for shop #%d from %s to %s (%.2f)", p.BookingID, p.ShopID, p.StartDate, p.EndDate, p.TotalAmount),
		kind:    model.NotificationInfo,
	})
}

func (h *StaffAlertHandler) HandlePaymentRecorded(ctx context.Context, raw json.RawMessage) error {
	var p events.PaymentRecordedPayload
	env, err := outbox.DecodeEnvelope(raw, &p)
	if err != nil {
		return err
	}
	kind := model.NotificationSuccess
	if p.Status == model.PaymentStatusFailed {
		kind = model.NotificationWarning
	}
	return h.alert(ctx, env, alert{
		title:   "Payment recorded",
		message: fmt.Sprintf("Payment #%d of %.2f via %s for booking #%d is %s", p.PaymentID, p.Amount, p.Method, p.BookingID, p.Status),
		kind:    kind,
	})
}

func (h *StaffAlertHandler) HandleInquiryCreated(ctx context.Context, raw json.RawMessage) error {
	var p events.InquiryCreatedPayload
	env, err := outbox.DecodeEnvelope(raw, &p)
	if err != nil {
		return err
	}
	return h.alert(ctx, env, alert{
		title:   "New inquiry",
		message: fmt.Sprintf("%s <%s>: %s", p.Name, p.Email, p.Subject),
		kind:    model.NotificationInfo,
	})
}

func (h *StaffAlertHandler) alert(ctx context.Context, env outbox.Envelope, a alert) error {
	log := logger.WithTrace(ctx, h.logger).With(
		zap.Int64("event_id", env.EventID),
		zap.String("routing_key", env.RoutingKey),
	)

	if !h.deduper.AcquireOnce(ctx, staffAlertHandler, env.EventID) {
		return nil
	}

	staff, err := h.staff.ActiveIDs(ctx, rbac.RoleAdmin, rbac.RoleManager)
	if err != nil {
		h.deduper.Release(ctx, staffAlertHandler, env.EventID)
		return fmt.Errorf("list staff: %w", err)
	}
	if len(staff) == 0 {
		log.Warn("No active staff to alert")
		return nil
	}

	created, err := h.notifier.Notify(ctx, staff, a.title, a.message, a.kind)
	if err != nil {
		h.deduper.Release(ctx, staffAlertHandler, env.EventID)
		return fmt.Errorf("notify staff: %w", err)
	}

	log.Info("Staff alerted", zap.Int("recipients", len(created)))
	return nil
}
