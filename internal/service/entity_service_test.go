package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malladmin/internal/events"
	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/internal/testkit"
	"malladmin/pkg/util"
)

func validationField(t *testing.T, err error) string {
	t.Helper()
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Field
}

func TestUserServiceCreate(t *testing.T) {
	users := testkit.NewUsers()
	svc := NewUserService(users, testkit.NewSessions(), &testkit.Tx{})
	ctx := context.Background()

	u, err := svc.Create(ctx, model.UserInput{Name: "Ada", Email: "ADA@example.com", Role: "viewer", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, model.UserStatusActive, u.Status)
	assert.True(t, util.CheckPassword("longenough", u.PasswordHash))

	_, err = svc.Create(ctx, model.UserInput{Name: "Dup", Email: "ada@example.com", Role: "viewer", Password: "longenough"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, model.UserInput{Name: "Bo", Email: "bo@example.com", Role: "viewer"})
	assert.Equal(t, "password", validationField(t, err))
}

func TestUserServiceUpdate(t *testing.T) {
	users := testkit.NewUsers(model.User{ID: 3, Name: "Ada", Email: "ada@example.com", Role: "viewer", Status: "active", PasswordHash: "old"})
	svc := NewUserService(users, testkit.NewSessions(), &testkit.Tx{})
	ctx := context.Background()

	u, err := svc.Update(ctx, 3, model.UserInput{Name: "Ada L", Email: "ada@example.com", Role: "manager"})
	require.NoError(t, err)
	assert.Equal(t, "manager", u.Role)

	stored, _ := users.GetByID(ctx, 3)
	assert.Equal(t, "old", stored.PasswordHash, "password untouched without a new one")

	_, err = svc.Update(ctx, 3, model.UserInput{Name: "Ada L", Email: "ada@example.com", Role: "manager", Password: "brand-new-pw"})
	require.NoError(t, err)
	stored, _ = users.GetByID(ctx, 3)
	assert.True(t, util.CheckPassword("brand-new-pw", stored.PasswordHash))

	_, err = svc.Update(ctx, 99, model.UserInput{Name: "X", Email: "x@example.com", Role: "viewer"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserServiceDeleteSelf(t *testing.T) {
	users := testkit.NewUsers(model.User{ID: 1, Email: "a@example.com"}, model.User{ID: 2, Email: "b@example.com"})
	svc := NewUserService(users, testkit.NewSessions(), &testkit.Tx{})
	ctx := context.Background()
	admin := &Principal{UserID: 1, Role: "admin"}

	assert.ErrorIs(t, svc.Delete(ctx, admin, 1), ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, admin, 2))
	assert.ErrorIs(t, svc.Delete(ctx, admin, 2), ErrNotFound)
}

func TestUserServiceListFilters(t *testing.T) {
	users := testkit.NewUsers(
		model.User{Name: "Ada", Email: "ada@example.com", Role: "admin", Status: "active"},
		model.User{Name: "Bo", Email: "bo@example.com", Role: "viewer", Status: "inactive"},
		model.User{Name: "Cy", Email: "cy@example.com", Role: "viewer", Status: "active"},
	)
	svc := NewUserService(users, testkit.NewSessions(), &testkit.Tx{})

	page, err := svc.List(context.Background(), query.ListParams{Status: "active", Filters: map[string]string{"role": "viewer"}, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Cy", page.Items[0].Name)
	assert.Equal(t, int64(1), page.Total)
}

func TestMallServiceDeleteWithShops(t *testing.T) {
	malls := testkit.NewMalls()
	svc := NewMallService(malls)
	ctx := context.Background()

	m, err := svc.Create(ctx, model.MallInput{Name: "Central", Address: "1 Main", City: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, model.MallStatusActive, m.Status)

	malls.HasShops[m.ID] = true
	assert.ErrorIs(t, svc.Delete(ctx, m.ID), ErrConflict)

	_, err = svc.Create(ctx, model.MallInput{Name: "Central", Address: "1 Main", City: "Pune", TotalFloors: -2})
	assert.Equal(t, "total_floors", validationField(t, err))
}

func TestShopServiceDuplicateNumber(t *testing.T) {
	svc := NewShopService(testkit.NewShops())
	ctx := context.Background()

	in := model.ShopInput{MallID: 1, Name: "Cafe", ShopNumber: "G-1"}
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrConflict)

	in.MallID = 2
	_, err = svc.Create(ctx, in)
	assert.NoError(t, err, "same number in another mall")
}

func newBookingInput() model.BookingInput {
	return model.BookingInput{
		ShopID:      1,
		UserID:      2,
		StartDate:   model.NewDate(2026, 1, 1),
		EndDate:     model.NewDate(2026, 6, 30),
		TotalAmount: 6000,
	}
}

func TestBookingServiceCreateEnqueuesEvent(t *testing.T) {
	bookings := testkit.NewBookings()
	tx := &testkit.Tx{}
	outbox := &testkit.Outbox{}
	svc := NewBookingService(bookings, tx, outbox)

	b, err := svc.Create(context.Background(), newBookingInput())
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, 1, tx.Calls)

	require.Len(t, outbox.Events, 1)
	ev := outbox.Events[0]
	assert.Equal(t, events.BookingCreated, ev.RoutingKey)
	assert.Equal(t, b.ID, ev.AggregateID)
	payload := ev.Payload.(events.BookingCreatedPayload)
	assert.Equal(t, "2026-01-01", payload.StartDate)
	assert.Equal(t, 6000.0, payload.TotalAmount)
}

func TestBookingServiceCreateFailsWithOutbox(t *testing.T) {
	outbox := &testkit.Outbox{Err: testkit.ErrInjected}
	svc := NewBookingService(testkit.NewBookings(), &testkit.Tx{}, outbox)

	_, err := svc.Create(context.Background(), newBookingInput())
	assert.ErrorIs(t, err, testkit.ErrInjected)
}

func TestBookingServiceRejectsReversedDates(t *testing.T) {
	in := newBookingInput()
	in.EndDate = model.NewDate(2025, 12, 1)
	svc := NewBookingService(testkit.NewBookings(), &testkit.Tx{}, &testkit.Outbox{})

	_, err := svc.Create(context.Background(), in)
	assert.Equal(t, "end_date", validationField(t, err))
}

func TestBookingServiceUpdateStatus(t *testing.T) {
	bookings := testkit.NewBookings(model.Booking{ShopID: 1, UserID: 2, Status: model.BookingStatusPending})
	outbox := &testkit.Outbox{}
	svc := NewBookingService(bookings, &testkit.Tx{}, outbox)
	ctx := context.Background()

	b, err := svc.UpdateStatus(ctx, 1, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	require.Equal(t, []string{events.BookingStatusChanged}, outbox.Keys())
	payload := outbox.Events[0].Payload.(events.BookingStatusChangedPayload)
	assert.Equal(t, "pending", payload.From)
	assert.Equal(t, "confirmed", payload.To)

	_, err = svc.UpdateStatus(ctx, 1, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Len(t, outbox.Events, 1, "no event when status is unchanged")

	_, err = svc.UpdateStatus(ctx, 1, "archived")
	assert.Equal(t, "status", validationField(t, err))

	_, err = svc.UpdateStatus(ctx, 42, model.BookingStatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingServiceUpdateEmitsStatusChange(t *testing.T) {
	bookings := testkit.NewBookings(model.Booking{ShopID: 1, UserID: 2, Status: model.BookingStatusPending})
	outbox := &testkit.Outbox{}
	svc := NewBookingService(bookings, &testkit.Tx{}, outbox)

	in := newBookingInput()
	in.Status = model.BookingStatusCancelled
	_, err := svc.Update(context.Background(), 1, in)
	require.NoError(t, err)
	assert.Equal(t, []string{events.BookingStatusChanged}, outbox.Keys())
}

func TestPaymentServiceCompletedGetsPaidAt(t *testing.T) {
	payments := testkit.NewPayments()
	outbox := &testkit.Outbox{}
	svc := NewPaymentService(payments, &testkit.Tx{}, outbox)
	fixed := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p, err := svc.Create(context.Background(), model.PaymentInput{BookingID: 1, Amount: 500, Method: "card", Status: "completed"})
	require.NoError(t, err)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, fixed, *p.PaidAt)
	assert.Equal(t, []string{events.PaymentRecorded}, outbox.Keys())

	_, err = svc.Create(context.Background(), model.PaymentInput{BookingID: 1, Amount: -1, Method: "card"})
	assert.Equal(t, "amount", validationField(t, err))
}

func TestInquiryServiceRespond(t *testing.T) {
	inquiries := testkit.NewInquiries()
	outbox := &testkit.Outbox{}
	svc := NewInquiryService(inquiries, &testkit.Tx{}, outbox)
	ctx := context.Background()

	q, err := svc.Create(ctx, model.InquiryInput{Name: "Bo", Email: "bo@example.com", Subject: "Lease", Message: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{events.InquiryCreated}, outbox.Keys())

	q, err = svc.Respond(ctx, q.ID, model.InquiryResponse{Response: " Available from May. "})
	require.NoError(t, err)
	assert.Equal(t, model.InquiryStatusResolved, q.Status)
	assert.Equal(t, "Available from May.", q.Response)

	_, err = svc.Respond(ctx, q.ID, model.InquiryResponse{Response: ""})
	assert.Equal(t, "response", validationField(t, err))

	_, err = svc.Respond(ctx, 404, model.InquiryResponse{Response: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationServiceBroadcast(t *testing.T) {
	users := testkit.NewUsers(
		model.User{Email: "a@example.com", Status: "active"},
		model.User{Email: "b@example.com", Status: "inactive"},
		model.User{Email: "c@example.com", Status: "active"},
	)
	notifications := testkit.NewNotifications()
	outbox := &testkit.Outbox{}
	svc := NewNotificationService(notifications, users, &testkit.Tx{}, outbox)
	ctx := context.Background()

	created, err := svc.Create(ctx, model.NotificationInput{Title: "Maintenance", Message: "Sunday 2am"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(1), created[0].UserID)
	assert.Equal(t, int64(3), created[1].UserID)
	assert.Equal(t, model.NotificationInfo, created[0].Type)
	assert.Equal(t, []string{events.NotificationCreated, events.NotificationCreated}, outbox.Keys())

	missing := int64(77)
	_, err = svc.Create(ctx, model.NotificationInput{UserID: &missing, Title: "x", Message: "y"})
	assert.Equal(t, "user_id", validationField(t, err))
}

func TestNotificationServiceOwnership(t *testing.T) {
	users := testkit.NewUsers(model.User{Email: "a@example.com", Status: "active"}, model.User{Email: "b@example.com", Status: "active"})
	notifications := testkit.NewNotifications()
	svc := NewNotificationService(notifications, users, &testkit.Tx{}, &testkit.Outbox{})
	ctx := context.Background()

	target := int64(1)
	created, err := svc.Create(ctx, model.NotificationInput{UserID: &target, Title: "t", Message: "m"})
	require.NoError(t, err)
	id := created[0].ID

	assert.ErrorIs(t, svc.MarkRead(ctx, 2, id), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, id), ErrNotFound)

	n, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, svc.MarkRead(ctx, 1, id))
	n, _ = svc.UnreadCount(ctx, 1)
	assert.Zero(t, n)

	ok, err := svc.MarkDelivered(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.MarkDelivered(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "second delivery is a no-op")
}

func TestSettingServiceUpsert(t *testing.T) {
	settings := testkit.NewSettings(model.Setting{Key: "site.name", Value: "Mall Admin", Description: "Display name"})
	svc := NewSettingService(settings)
	ctx := context.Background()
	actor := &Principal{UserID: 9}

	s, err := svc.Upsert(ctx, actor, "site.name", model.SettingInput{Value: "Acme Malls"})
	require.NoError(t, err)
	assert.Equal(t, "Display name", s.Description)
	require.NotNil(t, s.UpdatedBy)
	assert.Equal(t, int64(9), *s.UpdatedBy)

	_, err = svc.Upsert(ctx, actor, "Bad Key", model.SettingInput{Value: "x"})
	assert.Equal(t, "key", validationField(t, err))

	_, err = svc.Upsert(ctx, actor, "site.name", model.SettingInput{Value: "  "})
	assert.Equal(t, "value", validationField(t, err))

	assert.ErrorIs(t, svc.Delete(ctx, "missing.key"), ErrNotFound)
}

func TestSecurityServiceChangePassword(t *testing.T) {
	users := testkit.NewUsers(model.User{ID: 1, Email: "a@example.com", Status: "active", PasswordHash: mustHash(t, "old-password")})
	sessions := testkit.NewSessions()
	audit := &testkit.Audit{}
	ctx := context.Background()
	for _, id := range []string{"current", "phone", "laptop"} {
		require.NoError(t, sessions.Create(ctx, &model.Session{ID: id, UserID: 1}))
	}
	svc := NewSecurityService(users, sessions, audit, nopLogger())
	p := &Principal{UserID: 1, SessionID: "current"}

	_, err := svc.ChangePassword(ctx, p, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "new-password"}, "", "")
	assert.Equal(t, "current_password", validationField(t, err))

	_, err = svc.ChangePassword(ctx, p, ChangePasswordInput{CurrentPassword: "old-password", NewPassword: "short"}, "", "")
	assert.Equal(t, "new_password", validationField(t, err))

	_, err = svc.ChangePassword(ctx, p, ChangePasswordInput{CurrentPassword: "old-password", NewPassword: "old-password"}, "", "")
	assert.Equal(t, "new_password", validationField(t, err))

	revoked, err := svc.ChangePassword(ctx, p, ChangePasswordInput{CurrentPassword: "old-password", NewPassword: "new-password"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	list, err := svc.Sessions(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Current)

	u, _ := users.GetByID(ctx, 1)
	assert.True(t, util.CheckPassword("new-password", u.PasswordHash))
	assert.Equal(t, []string{model.AuditActionPassword}, audit.Actions())
}

func TestSecurityServiceRevokeSession(t *testing.T) {
	sessions := testkit.NewSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Create(ctx, &model.Session{ID: "mine", UserID: 1}))
	require.NoError(t, sessions.Create(ctx, &model.Session{ID: "theirs", UserID: 2}))
	svc := NewSecurityService(testkit.NewUsers(), sessions, &testkit.Audit{}, nopLogger())
	p := &Principal{UserID: 1, SessionID: "mine"}

	assert.ErrorIs(t, svc.RevokeSession(ctx, p, "theirs"), ErrNotFound)
	assert.NoError(t, svc.RevokeSession(ctx, p, "mine"))
}

func TestUserServiceUpdateRunsInTx(t *testing.T) {
	users := testkit.NewUsers(model.User{ID: 3, Name: "Ada", Email: "ada@example.com", Role: "viewer", Status: "active", PasswordHash: "old"})
	tx := &testkit.Tx{Err: testkit.ErrInjected}
	svc := NewUserService(users, testkit.NewSessions(), tx)
	ctx := context.Background()

	_, err := svc.Update(ctx, 3, model.UserInput{Name: "Ada L", Email: "ada@example.com", Role: "viewer", Password: "brand-new-pw"})
	require.ErrorIs(t, err, testkit.ErrInjected)
	assert.Equal(t, 1, tx.Calls)

	stored, _ := users.GetByID(ctx, 3)
	assert.Equal(t, "Ada", stored.Name)
	assert.Equal(t, "old", stored.PasswordHash)
}
