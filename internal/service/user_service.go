package service

import (
	"context"
	"fmt"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/metrics"
	"malladmin/pkg/util"
)

type UserService struct {
	users    UserStore
	sessions SessionStore
	tx       TxRunner
}

func NewUserService(users UserStore, sessions SessionStore, tx TxRunner) *UserService {
	return &UserService{users: users, sessions: sessions, tx: tx}
}

func (s *UserService) List(ctx context.Context, p query.ListParams) (query.Page[model.User], error) {
	users, total, err := s.users.List(ctx, p)
	if err != nil {
		return query.Page[model.User]{}, err
	}
	return query.NewPage(users, total, p), nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in model.UserInput) (*model.User, error) {
	in.Normalize()
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{PasswordHash: hash}
	in.Apply(u)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	metrics.IncrementEntityMutation("user", "create")
	return u, nil
}

// Update changes profile fields, and the password when one is given.
// Sessions are revoked when the account is disabled, its role changes or
// its password is reset, so existing tokens stop working.
func (s *UserService) Update(ctx context.Context, id int64, in model.UserInput) (*model.User, error) {
	in.Normalize()
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		h, err := util.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}

	var u *model.User
	revoke := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		revoke = in.Status != model.UserStatusActive || in.Role != cur.Role || hash != ""
		in.Apply(cur)
		if err := s.users.Update(ctx, cur); err != nil {
			return err
		}
		if hash != "" {
			if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
				return err
			}
			cur.PasswordHash = hash
		}
		u = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	if revoke {
		if err := s.revokeSessions(ctx, id); err != nil {
			return nil, err
		}
	}
	metrics.IncrementEntityMutation("user", "update")
	return u, nil
}

// Delete removes a user and their sessions. Callers cannot delete their
// own account.
func (s *UserService) Delete(ctx context.Context, actor *Principal, id int64) error {
	if actor != nil && actor.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrForbidden)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.revokeSessions(ctx, id); err != nil {
		return err
	}
	metrics.IncrementEntityMutation("user", "delete")
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID int64) error {
	if _, err := s.sessions.DeleteAllExcept(ctx, userID, ""); err != nil {
		return fmt.Errorf("revoke sessions of user %d: %w", userID, err)
	}
	return nil
}
