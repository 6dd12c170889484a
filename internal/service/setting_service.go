package service

import (
	"context"

	"malladmin/internal/model"
	"malladmin/pkg/metrics"
)

type SettingService struct {
	settings SettingStore
}

func NewSettingService(settings SettingStore) *SettingService {
	return &SettingService{settings: settings}
}

func (s *SettingService) List(ctx context.Context) ([]model.Setting, error) {
	items, err := s.settings.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Setting{}
	}
	return items, nil
}

func (s *SettingService) Get(ctx context.Context, key string) (*model.Setting, error) {
	if err := model.ValidateSettingKey(key); err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, key)
}

// Upsert creates or replaces key, recording who changed it.
func (s *SettingService) Upsert(ctx context.Context, actor *Principal, key string, in model.SettingInput) (*model.Setting, error) {
	if err := model.ValidateSettingKey(key); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	setting := &model.Setting{Key: key, Value: in.Value, Description: in.Description}
	if actor != nil {
		uid := actor.UserID
		setting.UpdatedBy = &uid
	}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	metrics.IncrementEntityMutation("setting", "upsert")
	return setting, nil
}

func (s *SettingService) Delete(ctx context.Context, key string) error {
	if err := model.ValidateSettingKey(key); err != nil {
		return err
	}
	if err := s.settings.Delete(ctx, key); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("setting", "delete")
	return nil
}
