package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malladmin/internal/model"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionStore(rdb), mr
}

func testSession(id string, userID int64, created time.Time) *model.Session {
	return &model.Session{
		ID:        id,
		UserID:    userID,
		IP:        "10.0.0.1",
		UserAgent: "curl/8",
		CreatedAt: created,
		ExpiresAt: created.Add(time.Hour),
	}
}

func TestSessionStoreCreateGet(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Create(ctx, testSession("s1", 7, now)))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "curl/8", got.UserAgent)
	assert.True(t, got.CreatedAt.Equal(now))
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Hour)))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStoreListPrunesExpired(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, testSession("old", 1, now.Add(-time.Minute))))
	require.NoError(t, store.Create(ctx, testSession("new", 1, now)))
	require.NoError(t, store.Create(ctx, testSession("other", 2, now)))

	list, err := store.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	mr.Del(sessionKey("old"))
	list, err = store.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	members, err := mr.Members(userSessionsKey(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, members)
}

func TestSessionStoreDelete(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, testSession("s1", 1, now)))

	assert.ErrorIs(t, store.Delete(ctx, 2, "s1"), ErrNotFound, "other user's session")
	require.NoError(t, store.Delete(ctx, 1, "s1"))
	assert.ErrorIs(t, store.Delete(ctx, 1, "s1"), ErrNotFound)
}

func TestSessionStoreDeleteAllExcept(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, testSession(id, 1, now)))
	}

	removed, err := store.DeleteAllExcept(ctx, 1, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err := store.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestSessionStoreListKeepsIndexOnReadErrors(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, testSession("s1", 1, now)))
	mr.HSet(sessionKey("s1"), "user_id", "garbled")

	_, err := store.ListByUser(ctx, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	members, err := mr.Members(userSessionsKey(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, members, "only missing sessions are pruned")

	mr.SetError("LOADING Redis is loading the dataset in memory")
	_, err = store.ListByUser(ctx, 1)
	assert.Error(t, err)
	mr.SetError("")
}
