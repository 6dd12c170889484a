package service

import (
	"context"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/metrics"
)

type MallService struct {
	malls MallStore
}

func NewMallService(malls MallStore) *MallService {
	return &MallService{malls: malls}
}

func (s *MallService) List(ctx context.Context, p query.ListParams) (query.Page[model.Mall], error) {
	malls, total, err := s.malls.List(ctx, p)
	if err != nil {
		return query.Page[model.Mall]{}, err
	}
	return query.NewPage(malls, total, p), nil
}

func (s *MallService) Get(ctx context.Context, id int64) (*model.Mall, error) {
	return s.malls.GetByID(ctx, id)
}

func (s *MallService) Create(ctx context.Context, in model.MallInput) (*model.Mall, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m := &model.Mall{}
	in.Apply(m)
	if err := s.malls.Create(ctx, m); err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("mall", "create")
	return m, nil
}

func (s *MallService) Update(ctx context.Context, id int64, in model.MallInput) (*model.Mall, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m, err := s.malls.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(m)
	if err := s.malls.Update(ctx, m); err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("mall", "update")
	return m, nil
}

// Delete fails with ErrConflict while the mall still has shops.
func (s *MallService) Delete(ctx context.Context, id int64) error {
	if err := s.malls.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("mall", "delete")
	return nil
}
