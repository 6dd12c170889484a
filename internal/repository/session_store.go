package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"malladmin/internal/model"
)

// SessionStore keeps issued tokens in Redis so they can be listed and
// revoked. session:<jti> is a hash expiring with the token;
// user_sessions:<uid> indexes a user's session ids.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userSessionsKey(userID int64) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

func (s *SessionStore) Create(ctx context.Context, sess *model.Session) error {
	key := sessionKey(sess.ID)
	idx := userSessionsKey(sess.UserID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    sess.UserID,
			"ip":         sess.IP,
			"user_agent": sess.UserAgent,
			"created_at": sess.CreatedAt.UTC().Format(time.RFC3339Nano),
			"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339Nano),
		})
		pipe.ExpireAt(ctx, key, sess.ExpiresAt)
		pipe.SAdd(ctx, idx, sess.ID)
		// Tokens share one TTL, so the newest session outlives the rest.
		pipe.ExpireAt(ctx, idx, sess.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns ErrNotFound for unknown or expired sessions.
func (s *SessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("get session: %w", ErrNotFound)
	}
	return decodeSession(id, fields)
}

func decodeSession(id string, fields map[string]string) (*model.Session, error) {
	uid, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess := &model.Session{
		ID:        id,
		UserID:    uid,
		IP:        fields["ip"],
		UserAgent: fields["user_agent"],
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	sess.ExpiresAt, _ = time.Parse(time.RFC3339Nano, fields["expires_at"])
	return sess, nil
}

// ListByUser returns live sessions, newest first, and prunes index entries
// whose session has expired.
func (s *SessionStore) ListByUser(ctx context.Context, userID int64) ([]model.Session, error) {
	idx := userSessionsKey(userID)
	ids, err := s.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var out []model.Session
	var stale []any
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, *sess)
	}
	if len(stale) > 0 {
		if err := s.rdb.SRem(ctx, idx, stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune sessions: %w", err)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete revokes one session of userID.
func (s *SessionStore) Delete(ctx context.Context, userID int64, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return fmt.Errorf("delete session: %w", ErrNotFound)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userSessionsKey(userID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAllExcept revokes every session of userID other than keepID and
// returns how many were removed.
func (s *SessionStore) DeleteAllExcept(ctx context.Context, userID int64, keepID string) (int, error) {
	idx := userSessionsKey(userID)
	ids, err := s.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	removed := 0
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			if id == keepID {
				continue
			}
			pipe.Del(ctx, sessionKey(id))
			pipe.SRem(ctx, idx, id)
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return removed, nil
}
