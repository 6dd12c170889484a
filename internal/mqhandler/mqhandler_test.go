package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"malladmin/internal/events"
	"malladmin/internal/model"
	"malladmin/internal/service"
	"malladmin/internal/testkit"
	"malladmin/pkg/outbox"
	"malladmin/pkg/util"
)

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: map[string]bool{}}
}

func (d *memDeduper) AcquireOnce(ctx context.Context, handler string, eventID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := fmt.Sprintf("%s:%d", handler, eventID)
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

func (d *memDeduper) Release(ctx context.Context, handler string, eventID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, fmt.Sprintf("%s:%d", handler, eventID))
}

func envelope(t *testing.T, id int64, key string, payload any) json.RawMessage {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := outbox.Envelope{EventID: id, RoutingKey: key, Payload: body}.Marshal()
	require.NoError(t, err)
	return raw
}

type alertFixture struct {
	handler       *StaffAlertHandler
	notifications *testkit.Notifications
	outbox        *testkit.Outbox
	deduper       *memDeduper
}

func newAlertFixture() *alertFixture {
	users := testkit.NewUsers(
		model.User{ID: 1, Email: "admin@example.com", Role: "admin", Status: "active"},
		model.User{ID: 2, Email: "manager@example.com", Role: "manager", Status: "active"},
		model.User{ID: 3, Email: "viewer@example.com", Role: "viewer", Status: "active"},
		model.User{ID: 4, Email: "gone@example.com", Role: "manager", Status: "inactive"},
	)
	f := &alertFixture{
		notifications: testkit.NewNotifications(),
		outbox:        &testkit.Outbox{},
		deduper:       newMemDeduper(),
	}
	notifier := service.NewNotificationService(f.notifications, users, &testkit.Tx{}, f.outbox)
	f.handler = NewStaffAlertHandler(users, notifier, f.deduper, zap.NewNop())
	return f
}

func TestStaffAlertFansOutToActiveStaff(t *testing.T) {
	f := newAlertFixture()
	ctx := context.Background()
	raw := envelope(t, 10, events.BookingCreated, events.BookingCreatedPayload{
		BookingID: 5, ShopID: 2, StartDate: "2024-01-01", EndDate: "2024-06-30", TotalAmount: 1200,
	})

	require.NoError(t, f.handler.HandleBookingCreated(ctx, raw))

	assert.Len(t, f.notifications.ForUser(1), 1)
	assert.Len(t, f.notifications.ForUser(2), 1)
	assert.Empty(t, f.notifications.ForUser(3))
	assert.Empty(t, f.notifications.ForUser(4))
	assert.Contains(t, f.notifications.ForUser(1)[0].Message, "Booking #5")
	assert.Equal(t, []string{events.NotificationCreated, events.NotificationCreated}, f.outbox.Keys())

	// redelivery is skipped
	require.NoError(t, f.handler.HandleBookingCreated(ctx, raw))
	assert.Len(t, f.notifications.ForUser(1), 1)
}

func TestStaffAlertPaymentKinds(t *testing.T) {
	f := newAlertFixture()
	ctx := context.Background()

	require.NoError(t, f.handler.HandlePaymentRecorded(ctx, envelope(t, 1, events.PaymentRecorded, events.PaymentRecordedPayload{
		PaymentID: 1, BookingID: 5, Amount: 99.5, Method: "card", Status: "completed",
	})))
	require.NoError(t, f.handler.HandlePaymentRecorded(ctx, envelope(t, 2, events.PaymentRecorded, events.PaymentRecordedPayload{
		PaymentID: 2, BookingID: 5, Amount: 10, Method: "cash", Status: "failed",
	})))

	got := f.notifications.ForUser(1)
	require.Len(t, got, 2)
	assert.Equal(t, model.NotificationSuccess, got[0].Type)
	assert.Equal(t, model.NotificationWarning, got[1].Type)
}

func TestStaffAlertInquiry(t *testing.T) {
	f := newAlertFixture()
	require.NoError(t, f.handler.HandleInquiryCreated(context.Background(), envelope(t, 3, events.InquiryCreated, events.InquiryCreatedPayload{
		InquiryID: 9, Name: "Bob", Email: "bob@example.com", Subject: "Leasing",
	})))

	got := f.notifications.ForUser(2)
	require.Len(t, got, 1)
	assert.Equal(t, "New inquiry", got[0].Title)
	assert.Equal(t, "Bob <bob@example.com>: Leasing", got[0].Message)
}

func TestStaffAlertFailureReleasesDedup(t *testing.T) {
	f := newAlertFixture()
	ctx := context.Background()
	raw := envelope(t, 11, events.InquiryCreated, events.InquiryCreatedPayload{InquiryID: 1, Name: "A", Email: "a@example.com", Subject: "S"})

	f.notifications.Err = testkit.ErrInjected
	err := f.handler.HandleInquiryCreated(ctx, raw)
	require.Error(t, err)
	retryable, _ := util.IsRetryableError(err)
	assert.True(t, retryable)

	f.notifications.Err = nil
	require.NoError(t, f.handler.HandleInquiryCreated(ctx, raw))
	assert.Len(t, f.notifications.ForUser(1), 1)
}

func TestStaffAlertRejectsBadMessages(t *testing.T) {
	f := newAlertFixture()
	ctx := context.Background()

	err := f.handler.HandleBookingCreated(ctx, json.RawMessage(`{not json`))
	require.Error(t, err)
	retryable, _ := util.IsRetryableError(err)
	assert.False(t, retryable)

	err = f.handler.HandleBookingCreated(ctx, json.RawMessage(`{"routing_key":"booking.created","payload":{}}`))
	require.Error(t, err)
	retryable, _ = util.IsRetryableError(err)
	assert.False(t, retryable)
}

func TestNotificationDelivered(t *testing.T) {
	notifications := testkit.NewNotifications()
	ctx := context.Background()
	n := &model.Notification{UserID: 1, Title: "t", Message: "m", Type: "info"}
	require.NoError(t, notifications.Create(ctx, n))

	svc := service.NewNotificationService(notifications, testkit.NewUsers(), &testkit.Tx{}, &testkit.Outbox{})
	h := NewNotificationDeliveredHandler(svc, zap.NewNop())
	raw := envelope(t, 20, events.NotificationCreated, events.NotificationCreatedPayload{NotificationID: n.ID, UserID: 1})

	require.NoError(t, h.HandleNotificationCreated(ctx, raw))
	got, err := notifications.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)
	first := *got.DeliveredAt

	require.NoError(t, h.HandleNotificationCreated(ctx, raw))
	got, err = notifications.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.DeliveredAt)

	missing := envelope(t, 21, events.NotificationCreated, events.NotificationCreatedPayload{NotificationID: 999})
	assert.NoError(t, h.HandleNotificationCreated(ctx, missing))
}
