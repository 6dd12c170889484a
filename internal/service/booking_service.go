package service

import (
	"context"

	"malladmin/internal/events"
	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/metrics"
)

type BookingService struct {
	bookings BookingStore
	tx       TxRunner
	outbox   EventWriter
}

func NewBookingService(bookings BookingStore, tx TxRunner, outbox EventWriter) *BookingService {
	return &BookingService{bookings: bookings, tx: tx, outbox: outbox}
}

func (s *BookingService) List(ctx context.Context, p query.ListParams) (query.Page[model.Booking], error) {
	bookings, total, err := s.bookings.List(ctx, p)
	if err != nil {
		return query.Page[model.Booking]{}, err
	}
	return query.NewPage(bookings, total, p), nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// Create inserts the booking and its booking.created event atomically.
func (s *BookingService) Create(ctx context.Context, in model.BookingInput) (*model.Booking, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	b := &model.Booking{}
	in.Apply(b)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.Create(ctx, b); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, events.AggregateBooking, b.ID, events.BookingCreated, events.BookingCreatedPayload{
			BookingID:   b.ID,
			ShopID:      b.ShopID,
			UserID:      b.UserID,
			StartDate:   b.StartDate.String(),
			EndDate:     b.EndDate.String(),
			TotalAmount: b.TotalAmount,
			Status:      b.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementEntityMutation("booking", "create")
	return s.reload(ctx, b), nil
}

// Update rewrites the booking; a status change also emits
// booking.status_changed.
func (s *BookingService) Update(ctx context.Context, id int64, in model.BookingInput) (*model.Booking, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var b *model.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous := b.Status
		in.Apply(b)
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		return s.statusChanged(ctx, b.ID, previous, b.Status)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementEntityMutation("booking", "update")
	return s.reload(ctx, b), nil
}

// UpdateStatus moves a booking to status.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status string) (*model.Booking, error) {
	if err := model.ValidateBookingStatus(status); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		previous, err := s.bookings.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}
		return s.statusChanged(ctx, id, previous, status)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementEntityMutation("booking", "status")
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) statusChanged(ctx context.Context, id int64, from, to string) error {
	if from == to {
		return nil
	}
	return s.outbox.Enqueue(ctx, events.AggregateBooking, id, events.BookingStatusChanged, events.BookingStatusChangedPayload{
		BookingID: id,
		From:      from,
		To:        to,
	})
}

func (s *BookingService) reload(ctx context.Context, b *model.Booking) *model.Booking {
	fresh, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return b
	}
	return fresh
}

func (s *BookingService) Delete(ctx context.Context, id int64) error {
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("booking", "delete")
	return nil
}
