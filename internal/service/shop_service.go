package service

import (
	"context"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/metrics"
)

type ShopService struct {
	shops ShopStore
}

func NewShopService(shops ShopStore) *ShopService {
	return &ShopService{shops: shops}
}

func (s *ShopService) List(ctx context.Context, p query.ListParams) (query.Page[model.Shop], error) {
	shops, total, err := s.shops.List(ctx, p)
	if err != nil {
		return query.Page[model.Shop]{}, err
	}
	return query.NewPage(shops, total, p), nil
}

func (s *ShopService) Get(ctx context.Context, id int64) (*model.Shop, error) {
	return s.shops.GetByID(ctx, id)
}

// Create fails with ErrConflict when the mall does not exist or already has
// a shop with the same number.
func (s *ShopService) Create(ctx context.Context, in model.ShopInput) (*model.Shop, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	shop := &model.Shop{}
	in.Apply(shop)
	if err := s.shops.Create(ctx, shop); err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("shop", "create")
	return s.reload(ctx, shop)
}

func (s *ShopService) Update(ctx context.Context, id int64, in model.ShopInput) (*model.Shop, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	shop, err := s.shops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(shop)
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("shop", "update")
	return s.reload(ctx, shop)
}

// reload re-reads the row for its joined display fields, falling back to
// the written row.
func (s *ShopService) reload(ctx context.Context, shop *model.Shop) (*model.Shop, error) {
	fresh, err := s.shops.GetByID(ctx, shop.ID)
	if err != nil {
		return shop, nil
	}
	return fresh, nil
}

func (s *ShopService) Delete(ctx context.Context, id int64) error {
	if err := s.shops.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("shop", "delete")
	return nil
}
