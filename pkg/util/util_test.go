package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	now := time.Now()
	token, exp, err := GenerateJWT(42, "manager", "sess-1", "malladmin", "secret", time.Hour, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	claims, err := ParseJWT(token, "malladmin", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "sess-1", claims.ID)
}

func TestParseJWTRejects(t *testing.T) {
	now := time.Now()
	valid, _, err := GenerateJWT(1, "admin", "s", "malladmin", "secret", time.Hour, now)
	require.NoError(t, err)

	expired, _, err := GenerateJWT(1, "admin", "s", "malladmin", "secret", time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           1,
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ID: "s", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noJTI, _, err := GenerateJWT(1, "admin", "", "malladmin", "secret", time.Hour, now)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		issuer string
		secret string
	}{
		{"wrong secret", valid, "malladmin", "other"},
		{"wrong issuer", valid, "someone-else", "secret"},
		{"expired", expired, "malladmin", "secret"},
		{"alg none", none, "malladmin", "secret"},
		{"missing jti", noJTI, "malladmin", "secret"},
		{"garbage", "not.a.token", "malladmin", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWT(tt.token, tt.issuer, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer a b", ""},
	}

	for _, tt := range tests {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, ExtractToken(r), tt.header)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestIsRetryableError(t *testing.T) {
	var syntaxErr error = &json.SyntaxError{}
	tests := []struct {
		name      string
		err       error
		retryable bool
		kind      string
	}{
		{"permanent", Permanent(errors.New("bad")), false, "permanent"},
		{"wrapped permanent", fmt.Errorf("handle: %w", Permanent(errors.New("bad"))), false, "permanent"},
		{"json", fmt.Errorf("decode: %w", syntaxErr), false, "json_decode_error"},
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), false, "not_found"},
		{"unique", &pgconn.PgError{Code: "23505"}, false, "constraint_violation"},
		{"serialization", &pgconn.PgError{Code: "40001"}, true, "db_error"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"unknown", errors.New("boom"), true, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, kind := IsRetryableError(tt.err)
			assert.Equal(t, tt.retryable, retryable)
			assert.Equal(t, tt.kind, kind)
		})
	}

	retryable, kind := IsRetryableError(nil)
	assert.False(t, retryable)
	assert.Empty(t, kind)
}
