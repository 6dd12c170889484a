package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/pkg/logger"
	"malladmin/pkg/util"
)

// ChangePasswordInput is the password change form.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type SecurityService struct {
	users    UserStore
	sessions SessionStore
	audit    AuditStore
	logger   *zap.Logger
}

func NewSecurityService(users UserStore, sessions SessionStore, audit AuditStore, logger *zap.Logger) *SecurityService {
	return &SecurityService{users: users, sessions: sessions, audit: audit, logger: logger}
}

// ChangePassword verifies the current password, stores the new one and
// revokes every other session of the caller. It returns the number of
// revoked sessions.
func (s *SecurityService) ChangePassword(ctx context.Context, p *Principal, in ChangePasswordInput, ip, userAgent string) (int, error) {
	if err := model.ValidatePassword("new_password", in.NewPassword); err != nil {
		return 0, err
	}
	if in.NewPassword == in.CurrentPassword {
		return 0, &model.ValidationError{Field: "new_password", Message: "must differ from the current password"}
	}

	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return 0, err
	}
	if !util.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return 0, &model.ValidationError{Field: "current_password", Message: "is incorrect"}
	}

	hash, err := util.HashPassword(in.NewPassword)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return 0, err
	}

	revoked, err := s.sessions.DeleteAllExcept(ctx, u.ID, p.SessionID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}

	uid := u.ID
	entry := &model.AuditLog{
		UserID:     &uid,
		Action:     model.AuditActionPassword,
		Resource:   "users",
		ResourceID: fmt.Sprint(u.ID),
		IP:         ip,
		UserAgent:  userAgent,
		StatusCode: 200,
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to write audit log", zap.Error(err))
	}
	return revoked, nil
}

// Sessions lists the caller's live sessions, flagging the current one.
func (s *SecurityService) Sessions(ctx context.Context, p *Principal) ([]model.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Current = sessions[i].ID == p.SessionID
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}

// RevokeSession ends one of the caller's sessions. Revoking the current
// session is a logout.
func (s *SecurityService) RevokeSession(ctx context.Context, p *Principal, id string) error {
	return s.sessions.Delete(ctx, p.UserID, id)
}

func (s *SecurityService) AuditLogs(ctx context.Context, p query.ListParams) (query.Page[model.AuditLog], error) {
	items, total, err := s.audit.List(ctx, p)
	if err != nil {
		return query.Page[model.AuditLog]{}, err
	}
	return query.NewPage(items, total, p), nil
}

// Record writes an audit entry; failures are logged and swallowed.
func (s *SecurityService) Record(ctx context.Context, entry *model.AuditLog) {
	if err := s.audit.Insert(ctx, entry); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.Error(err),
		)
	}
}
