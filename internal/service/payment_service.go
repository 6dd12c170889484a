package service

import (
	"context"
	"time"

	"malladmin/internal/events"
	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/metrics"
)

type PaymentService struct {
	payments PaymentStore
	tx       TxRunner
	outbox   EventWriter
	now      func() time.Time
}

func NewPaymentService(payments PaymentStore, tx TxRunner, outbox EventWriter) *PaymentService {
	return &PaymentService{payments: payments, tx: tx, outbox: outbox, now: time.Now}
}

func (s *PaymentService) List(ctx context.Context, p query.ListParams) (query.Page[model.Payment], error) {
	payments, total, err := s.payments.List(ctx, p)
	if err != nil {
		return query.Page[model.Payment]{}, err
	}
	return query.NewPage(payments, total, p), nil
}

func (s *PaymentService) Get(ctx context.Context, id int64) (*model.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

// Create records the payment and its payment.recorded event atomically.
func (s *PaymentService) Create(ctx context.Context, in model.PaymentInput) (*model.Payment, error) {
	in.Normalize(s.now())
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p := &model.Payment{}
	in.Apply(p)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.payments.Create(ctx, p); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, events.AggregatePayment, p.ID, events.PaymentRecorded, events.PaymentRecordedPayload{
			PaymentID: p.ID,
			BookingID: p.BookingID,
			Amount:    p.Amount,
			Method:    p.Method,
			Status:    p.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementEntityMutation("payment", "create")
	return s.reload(ctx, p), nil
}

func (s *PaymentService) Update(ctx context.Context, id int64, in model.PaymentInput) (*model.Payment, error) {
	in.Normalize(s.now())
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(p)
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	metrics.IncrementEntityMutation("payment", "update")
	return s.reload(ctx, p), nil
}

func (s *PaymentService) reload(ctx context.Context, p *model.Payment) *model.Payment {
	fresh, err := s.payments.GetByID(ctx, p.ID)
	if err != nil {
		return p
	}
	return fresh
}

func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	if err := s.payments.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("payment", "delete")
	return nil
}
