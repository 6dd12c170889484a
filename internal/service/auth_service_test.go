package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/testkit"
	"malladmin/pkg/util"
)

type authFixture struct {
	svc      *AuthService
	users    *testkit.Users
	sessions *testkit.Sessions
	attempts *testkit.Attempts
	audit    *testkit.Audit
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := util.HashPassword(pw)
	require.NoError(t, err)
	return h
}

func newAuthFixture(t *testing.T, users ...model.User) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    testkit.NewUsers(users...),
		sessions: testkit.NewSessions(),
		attempts: testkit.NewAttempts(),
		audit:    &testkit.Audit{},
	}
	f.svc = NewAuthService(f.users, f.sessions, f.attempts, f.audit, AuthConfig{
		JWTSecret:       "test-secret",
		JWTIssuer:       "malladmin-test",
		TokenTTL:        time.Hour,
		MaxFailedLogins: 5,
	}, zap.NewNop())
	return f
}

func TestLoginSuccess(t *testing.T) {
	hash := mustHash(t, "correct-horse")
	f := newAuthFixture(t, model.User{ID: 1, Name: "Ada", Email: "ada@example.com", Role: "manager", Status: "active", PasswordHash: hash})
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginRequest{Email: " ADA@example.com ", Password: "correct-horse", IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(1), res.User.ID)
	assert.NotNil(t, res.User.LastLoginAt)

	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.UserID)
	assert.Equal(t, "manager", p.Role)

	sess, err := f.sessions.Get(ctx, p.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", sess.IP)

	assert.Equal(t, []string{model.AuditActionLogin}, f.audit.Actions())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t, model.User{ID: 1, Email: "ada@example.com", Role: "admin", Status: "active", PasswordHash: mustHash(t, "correct-horse")})
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	n, _ := f.attempts.Get(ctx, "ada@example.com")
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{model.AuditActionLoginFailed, model.AuditActionLoginFailed}, f.audit.Actions())

	_, err = f.svc.Login(ctx, LoginRequest{Email: "", Password: ""})
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLoginLockout(t *testing.T) {
	f := newAuthFixture(t, model.User{ID: 1, Email: "ada@example.com", Role: "admin", Status: "active", PasswordHash: mustHash(t, "correct-horse")})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "nope-nope"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrAccountLocked, "correct password is refused while locked")

	require.NoError(t, f.attempts.Reset(ctx, "ada@example.com"))
	_, err = f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestLoginDisabledAccount(t *testing.T) {
	f := newAuthFixture(t, model.User{ID: 1, Email: "sus@example.com", Role: "viewer", Status: "suspended", PasswordHash: mustHash(t, "correct-horse")})

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "sus@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthenticateRejects(t *testing.T) {
	f := newAuthFixture(t, model.User{ID: 1, Email: "ada@example.com", Role: "admin", Status: "active", PasswordHash: mustHash(t, "correct-horse")})
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)

	forged, _, err := util.GenerateJWT(1, "admin", "sid", "malladmin-test", "other-secret", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)

	res, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, p, "", ""))
	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized, "logged out token")
}

func TestAuthenticateSessionStoreDown(t *testing.T) {
	f := newAuthFixture(t, model.User{ID: 1, Email: "ada@example.com", Role: "admin", Status: "active", PasswordHash: mustHash(t, "correct-horse")})
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	f.sessions.Err = testkit.ErrInjected
	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, testkit.ErrInjected)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestBootstrap(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	created, err := f.svc.Bootstrap(ctx, BootstrapAdmin{Email: "Root@Example.com", Password: "bootstrap-pw"})
	require.NoError(t, err)
	assert.True(t, created)

	u, err := f.users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, "Administrator", u.Name)
	assert.True(t, util.CheckPassword("bootstrap-pw", u.PasswordHash))

	created, err = f.svc.Bootstrap(ctx, BootstrapAdmin{Email: "second@example.com", Password: "bootstrap-pw"})
	require.NoError(t, err)
	assert.False(t, created)

	empty := newAuthFixture(t)
	created, err = empty.svc.Bootstrap(ctx, BootstrapAdmin{})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = empty.svc.Bootstrap(ctx, BootstrapAdmin{Email: "x@example.com", Password: "short"})
	assert.Error(t, err)
}

func TestUserChangesRevokeSessions(t *testing.T) {
	cases := []struct {
		name   string
		change func(ctx context.Context, svc *UserService) error
	}{
		{"suspended", func(ctx context.Context, svc *UserService) error {
			_, err := svc.Update(ctx, 2, model.UserInput{Name: "Mo", Email: "mo@example.com", Role: "manager", Status: model.UserStatusSuspended})
			return err
		}},
		{"inactive", func(ctx context.Context, svc *UserService) error {
			_, err := svc.Update(ctx, 2, model.UserInput{Name: "Mo", Email: "mo@example.com", Role: "manager", Status: model.UserStatusInactive})
			return err
		}},
		{"role changed", func(ctx context.Context, svc *UserService) error {
			_, err := svc.Update(ctx, 2, model.UserInput{Name: "Mo", Email: "mo@example.com", Role: "viewer"})
			return err
		}},
		{"password reset", func(ctx context.Context, svc *UserService) error {
			_, err := svc.Update(ctx, 2, model.UserInput{Name: "Mo", Email: "mo@example.com", Role: "manager", Password: "reset-by-admin"})
			return err
		}},
		{"deleted", func(ctx context.Context, svc *UserService) error {
			return svc.Delete(ctx, &Principal{UserID: 1, Role: "admin"}, 2)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t,
				model.User{ID: 1, Email: "root@example.com", Role: "admin", Status: "active"},
				model.User{ID: 2, Name: "Mo", Email: "mo@example.com", Role: "manager", Status: "active", PasswordHash: mustHash(t, "correct-horse")},
			)
			users := NewUserService(f.users, f.sessions, &testkit.Tx{})
			ctx := context.Background()

			res, err := f.svc.Login(ctx, LoginRequest{Email: "mo@example.com", Password: "correct-horse"})
			require.NoError(t, err)
			_, err = f.svc.Authenticate(ctx, res.Token)
			require.NoError(t, err)

			require.NoError(t, tc.change(ctx, users))

			_, err = f.svc.Authenticate(ctx, res.Token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestUserProfileEditKeepsSessions(t *testing.T) {
	f := newAuthFixture(t, model.User{ID: 2, Name: "Mo", Email: "mo@example.com", Role: "manager", Status: "active", PasswordHash: mustHash(t, "correct-horse")})
	users := NewUserService(f.users, f.sessions, &testkit.Tx{})
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginRequest{Email: "mo@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = users.Update(ctx, 2, model.UserInput{Name: "Mo Renamed", Email: "mo@example.com", Role: "manager"})
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.NoError(t, err)
}

func TestUserSuspendFailsWhenSessionsCannotBeRevoked(t *testing.T) {
	f := newAuthFixture(t, model.User{ID: 2, Name: "Mo", Email: "mo@example.com", Role: "manager", Status: "active"})
	users := NewUserService(f.users, f.sessions, &testkit.Tx{})
	f.sessions.Err = testkit.ErrInjected

	_, err := users.Update(context.Background(), 2, model.UserInput{Name: "Mo", Email: "mo@example.com", Role: "manager", Status: model.UserStatusSuspended})
	assert.ErrorIs(t, err, testkit.ErrInjected)
}
