package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/pkg/logger"
	"malladmin/pkg/metrics"
	"malladmin/pkg/rbac"
	"malladmin/pkg/util"
)

// AuthConfig holds token and lockout settings.
type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	MaxFailedLogins int64
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    int64
	Role      string
	SessionID string
}

type LoginRequest struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// BootstrapAdmin is the account created on first start.
type BootstrapAdmin struct {
	Name     string
	Email    string
	Password string
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	attempts AttemptCounter
	audit    AuditStore
	cfg      AuthConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, attempts AttemptCounter, audit AuditStore, cfg AuthConfig, logger *zap.Logger) *AuthService {
	if cfg.MaxFailedLogins <= 0 {
		cfg.MaxFailedLogins = 5
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		attempts: attempts,
		audit:    audit,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords both return ErrInvalidCredentials and count towards the lockout.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	log := logger.WithTrace(ctx, s.logger)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, &model.ValidationError{Field: "email", Message: "email and password are required"}
	}

	failures, err := s.attempts.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check login attempts: %w", err)
	}
	if failures >= s.cfg.MaxFailedLogins {
		metrics.IncrementLoginAttempt("locked")
		s.record(ctx, nil, model.AuditActionLoginFailed, email, req, 429)
		return nil, ErrAccountLocked
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, s.fail(ctx, nil, email, req)
	}
	if err != nil {
		return nil, err
	}
	if !util.CheckPassword(req.Password, u.PasswordHash) {
		return nil, s.fail(ctx, &u.ID, email, req)
	}
	if !u.CanLogin() {
		metrics.IncrementLoginAttempt("disabled")
		s.record(ctx, &u.ID, model.AuditActionLoginFailed, email, req, 403)
		return nil, ErrAccountDisabled
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		log.Warn("Failed to reset login attempts", zap.String("email", email), zap.Error(err))
	}

	now := s.now()
	sessionID := uuid.NewString()
	token, expiresAt, err := util.GenerateJWT(u.ID, u.Role, sessionID, s.cfg.JWTIssuer, s.cfg.JWTSecret, s.cfg.TokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	err = s.sessions.Create(ctx, &model.Session{
		ID:        sessionID,
		UserID:    u.ID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		log.Warn("Failed to update last login", zap.Int64("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}

	metrics.IncrementLoginAttempt("success")
	s.record(ctx, &u.ID, model.AuditActionLogin, email, req, 200)
	log.Info("User logged in", zap.Int64("user_id", u.ID), zap.String("session_id", sessionID))

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *AuthService) fail(ctx context.Context, userID *int64, email string, req LoginRequest) error {
	if _, err := s.attempts.Increment(ctx, email); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to count login attempt", zap.String("email", email), zap.Error(err))
	}
	metrics.IncrementLoginAttempt("failure")
	s.record(ctx, userID, model.AuditActionLoginFailed, email, req, 401)
	return ErrInvalidCredentials
}

func (s *AuthService) record(ctx context.Context, userID *int64, action, email string, req LoginRequest, status int) {
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: email,
		IP:         req.IP,
		UserAgent:  req.UserAgent,
		StatusCode: status,
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

// Authenticate validates a bearer token and its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := util.ParseJWT(token, s.cfg.JWTIssuer, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: session revoked", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: session owner mismatch", ErrUnauthorized)
	}

	return &Principal{UserID: claims.UserID, Role: claims.Role, SessionID: claims.ID}, nil
}

// Logout revokes the caller's session.
func (s *AuthService) Logout(ctx context.Context, p *Principal, ip, userAgent string) error {
	if err := s.sessions.Delete(ctx, p.UserID, p.SessionID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	uid := p.UserID
	s.record(ctx, &uid, model.AuditActionLogout, p.SessionID, LoginRequest{IP: ip, UserAgent: userAgent}, 200)
	return nil
}

func (s *AuthService) Me(ctx context.Context, p *Principal) (*model.User, error) {
	return s.users.GetByID(ctx, p.UserID)
}

// Bootstrap creates the configured admin when no user exists yet. It
// reports whether an account was created.
func (s *AuthService) Bootstrap(ctx context.Context, admin BootstrapAdmin) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if admin.Email == "" || admin.Password == "" {
		s.logger.Warn("No users exist and no bootstrap admin is configured")
		return false, nil
	}

	in := model.UserInput{
		Name:     admin.Name,
		Email:    admin.Email,
		Role:     rbac.RoleAdmin,
		Password: admin.Password,
	}
	if in.Name == "" {
		in.Name = "Administrator"
	}
	in.Normalize()
	if err := in.Validate(true); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return false, err
	}
	u := &model.User{PasswordHash: hash}
	in.Apply(u)
	if err := s.users.Create(ctx, u); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	s.logger.Info("Bootstrap admin created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return true, nil
}
