package service

import (
	"context"
	"errors"
	"time"

	"malladmin/internal/events"
	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/metrics"
)

type NotificationService struct {
	notifications NotificationStore
	users         UserStore
	tx            TxRunner
	outbox        EventWriter
	now           func() time.Time
}

func NewNotificationService(notifications NotificationStore, users UserStore, tx TxRunner, outbox EventWriter) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		tx:            tx,
		outbox:        outbox,
		now:           time.Now,
	}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int64, p query.ListParams) (query.Page[model.Notification], error) {
	items, total, err := s.notifications.ListForUser(ctx, userID, p)
	if err != nil {
		return query.Page[model.Notification]{}, err
	}
	return query.NewPage(items, total, p), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

// Create sends a notification to one user, or to every active user when
// the input has no user_id. One row is written per recipient.
func (s *NotificationService) Create(ctx context.Context, in model.NotificationInput) ([]model.Notification, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var recipients []int64
	if in.UserID != nil {
		if _, err := s.users.GetByID(ctx, *in.UserID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &model.ValidationError{Field: "user_id", Message: "user does not exist"}
			}
			return nil, err
		}
		recipients = []int64{*in.UserID}
	} else {
		ids, err := s.users.ActiveIDs(ctx)
		if err != nil {
			return nil, err
		}
		recipients = ids
	}

	return s.Notify(ctx, recipients, in.Title, in.Message, in.Type)
}

// Notify writes one notification per user id, each with a
// notification.created event, in a single transaction.
func (s *NotificationService) Notify(ctx context.Context, userIDs []int64, title, message, kind string) ([]model.Notification, error) {
	created := make([]model.Notification, 0, len(userIDs))
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, uid := range userIDs {
			n := &model.Notification{UserID: uid, Title: title, Message: message, Type: kind}
			if err := s.notifications.Create(ctx, n); err != nil {
				return err
			}
			err := s.outbox.Enqueue(ctx, events.AggregateNotification, n.ID, events.NotificationCreated, events.NotificationCreatedPayload{
				NotificationID: n.ID,
				UserID:         n.UserID,
				CreatedAt:      n.CreatedAt,
			})
			if err != nil {
				return err
			}
			created = append(created, *n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		metrics.IncrementEntityMutation("notification", "create")
	}
	return created, nil
}

// MarkRead returns ErrNotFound for notifications of other users.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.notifications.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.notifications.Delete(ctx, id, userID); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("notification", "delete")
	return nil
}

// MarkDelivered stamps delivered_at; false means it was already delivered
// or no longer exists.
func (s *NotificationService) MarkDelivered(ctx context.Context, id int64) (bool, error) {
	ok, err := s.notifications.MarkDelivered(ctx, id, s.now())
	if err != nil {
		return false, err
	}
	if ok {
		metrics.IncrementNotificationsDelivered(1)
	}
	return ok, nil
}
