package service

import (
	"context"

	"malladmin/internal/events"
	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/metrics"
)

type InquiryService struct {
	inquiries InquiryStore
	tx        TxRunner
	outbox    EventWriter
}

func NewInquiryService(inquiries InquiryStore, tx TxRunner, outbox EventWriter) *InquiryService {
	return &InquiryService{inquiries: inquiries, tx: tx, outbox: outbox}
}

func (s *InquiryService) List(ctx context.Context, p query.ListParams) (query.Page[model.Inquiry], error) {
	inquiries, total, err := s.inquiries.List(ctx, p)
	if err != nil {
		return query.Page[model.Inquiry]{}, err
	}
	return query.NewPage(inquiries, total, p), nil
}

func (s *InquiryService) Get(ctx context.Context, id int64) (*model.Inquiry, error) {
	return s.inquiries.GetByID(ctx, id)
}

func (s *InquiryService) Create(ctx context.Context, in model.InquiryInput) (*model.Inquiry, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	q := &model.Inquiry{}
	in.Apply(q)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.inquiries.Create(ctx, q); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, events.AggregateInquiry, q.ID, events.InquiryCreated, events.InquiryCreatedPayload{
			InquiryID: q.ID,
			Name:      q.Name,
			Email:     q.Email,
			Subject:   q.Subject,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementEntityMutation("inquiry", "create")
	return q, nil
}

func (s *InquiryService) Update(ctx context.Context, id int64, in model.InquiryInput) (*model.Inquiry, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	q, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(q)
	if err := s.inquiries.Update(ctx, q); err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("inquiry", "update")
	return q, nil
}

// Respond stores a staff reply and resolves the inquiry.
func (s *InquiryService) Respond(ctx context.Context, id int64, in model.InquiryResponse) (*model.Inquiry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	q, err := s.inquiries.Respond(ctx, id, in.Response)
	if err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("inquiry", "respond")
	return q, nil
}

func (s *InquiryService) Delete(ctx context.Context, id int64) error {
	if err := s.inquiries.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("inquiry", "delete")
	return nil
}
