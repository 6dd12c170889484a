package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"malladmin/internal/model"
)

const dashboardRecentLimit = 5

type DashboardService struct {
	users         UserStore
	malls         MallStore
	shops         ShopStore
	bookings      BookingStore
	payments      PaymentStore
	inquiries     InquiryStore
	notifications NotificationStore
}

func NewDashboardService(
	users UserStore,
	malls MallStore,
	shops ShopStore,
	bookings BookingStore,
	payments PaymentStore,
	inquiries InquiryStore,
	notifications NotificationStore,
) *DashboardService {
	return &DashboardService{
		users:         users,
		malls:         malls,
		shops:         shops,
		bookings:      bookings,
		payments:      payments,
		inquiries:     inquiries,
		notifications: notifications,
	}
}

// Stats runs every dashboard read concurrently. Each goroutine writes its
// own field; the first error cancels the rest.
func (s *DashboardService) Stats(ctx context.Context, p *Principal) (*model.DashboardStats, error) {
	var st model.DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		st.TotalUsers, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalMalls, err = s.malls.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalShops, err = s.shops.CountByStatus(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		st.OccupiedShops, err = s.shops.CountByStatus(ctx, model.ShopStatusOccupied)
		return err
	})
	g.Go(func() (err error) {
		st.ActiveBookings, err = s.bookings.CountByStatus(ctx, model.BookingStatusPending, model.BookingStatusConfirmed)
		return err
	})
	g.Go(func() (err error) {
		st.TotalRevenue, err = s.payments.SumByStatus(ctx, model.PaymentStatusCompleted)
		return err
	})
	g.Go(func() (err error) {
		st.PendingPayments, err = s.payments.CountByStatus(ctx, model.PaymentStatusPending)
		return err
	})
	g.Go(func() (err error) {
		st.OpenInquiries, err = s.inquiries.CountByStatus(ctx, model.InquiryStatusNew, model.InquiryStatusInProgress)
		return err
	})
	g.Go(func() (err error) {
		st.UnreadNotifications, err = s.notifications.UnreadCount(ctx, p.UserID)
		return err
	})
	g.Go(func() (err error) {
		st.RecentBookings, err = s.bookings.Recent(ctx, dashboardRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		st.RecentInquiries, err = s.inquiries.Recent(ctx, dashboardRecentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.OccupancyRate = model.OccupancyRate(st.OccupiedShops, st.TotalShops)
	if st.RecentBookings == nil {
		st.RecentBookings = []model.Booking{}
	}
	if st.RecentInquiries == nil {
		st.RecentInquiries = []model.Inquiry{}
	}
	return &st, nil
}
