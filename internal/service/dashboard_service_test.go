package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malladmin/internal/model"
	"malladmin/internal/testkit"
)

type dashboardFixture struct {
	users         *testkit.Users
	malls         *testkit.Malls
	shops         *testkit.Shops
	bookings      *testkit.Bookings
	payments      *testkit.Payments
	inquiries     *testkit.Inquiries
	notifications *testkit.Notifications
}

func (f *dashboardFixture) service() *DashboardService {
	return NewDashboardService(f.users, f.malls, f.shops, f.bookings, f.payments, f.inquiries, f.notifications)
}

func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()
	ctx := context.Background()
	f := &dashboardFixture{
		users: testkit.NewUsers(model.User{Email: "a@example.com"}, model.User{Email: "b@example.com"}),
		malls: testkit.NewMalls(),
		shops: testkit.NewShops(
			model.Shop{MallID: 1, ShopNumber: "1", Status: model.ShopStatusOccupied},
			model.Shop{MallID: 1, ShopNumber: "2", Status: model.ShopStatusAvailable},
			model.Shop{MallID: 1, ShopNumber: "3", Status: model.ShopStatusOccupied},
			model.Shop{MallID: 1, ShopNumber: "4", Status: model.ShopStatusMaintenance},
		),
		bookings: testkit.NewBookings(
			model.Booking{Status: model.BookingStatusPending},
			model.Booking{Status: model.BookingStatusConfirmed},
			model.Booking{Status: model.BookingStatusCancelled},
		),
		payments: testkit.NewPayments(
			model.Payment{Amount: 100, Status: model.PaymentStatusCompleted},
			model.Payment{Amount: 250, Status: model.PaymentStatusCompleted},
			model.Payment{Amount: 75, Status: model.PaymentStatusPending},
		),
		inquiries: testkit.NewInquiries(
			model.Inquiry{Status: model.InquiryStatusNew},
			model.Inquiry{Status: model.InquiryStatusInProgress},
			model.Inquiry{Status: model.InquiryStatusClosed},
		),
		notifications: testkit.NewNotifications(),
	}
	require.NoError(t, f.malls.Create(ctx, &model.Mall{Name: "Central"}))
	require.NoError(t, f.notifications.Create(ctx, &model.Notification{UserID: 1, Title: "a"}))
	require.NoError(t, f.notifications.Create(ctx, &model.Notification{UserID: 2, Title: "b"}))
	return f
}

func TestDashboardStats(t *testing.T) {
	f := newDashboardFixture(t)

	st, err := f.service().Stats(context.Background(), &Principal{UserID: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(2), st.TotalUsers)
	assert.Equal(t, int64(1), st.TotalMalls)
	assert.Equal(t, int64(4), st.TotalShops)
	assert.Equal(t, int64(2), st.OccupiedShops)
	assert.Equal(t, 50.0, st.OccupancyRate)
	assert.Equal(t, int64(2), st.ActiveBookings)
	assert.Equal(t, 350.0, st.TotalRevenue)
	assert.Equal(t, int64(1), st.PendingPayments)
	assert.Equal(t, int64(2), st.OpenInquiries)
	assert.Equal(t, int64(1), st.UnreadNotifications)
	require.Len(t, st.RecentBookings, 3)
	assert.Equal(t, int64(3), st.RecentBookings[0].ID, "newest first")
	assert.Len(t, st.RecentInquiries, 3)
}

func TestDashboardEmpty(t *testing.T) {
	svc := NewDashboardService(testkit.NewUsers(), testkit.NewMalls(), testkit.NewShops(), testkit.NewBookings(),
		testkit.NewPayments(), testkit.NewInquiries(), testkit.NewNotifications())

	st, err := svc.Stats(context.Background(), &Principal{UserID: 1})
	require.NoError(t, err)
	assert.Zero(t, st.OccupancyRate)
	assert.NotNil(t, st.RecentBookings)
	assert.NotNil(t, st.RecentInquiries)
}

func TestDashboardFirstErrorWins(t *testing.T) {
	f := newDashboardFixture(t)
	f.shops.Err = testkit.ErrInjected

	st, err := f.service().Stats(context.Background(), &Principal{UserID: 1})
	assert.ErrorIs(t, err, testkit.ErrInjected)
	assert.Nil(t, st)
}
