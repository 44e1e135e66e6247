package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellkit/core"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_AddPoints(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	user := core.UserID("test-user")

	st, err := store.AddPoints(ctx, user, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), st.Points)
	assert.Equal(t, 1, st.Level)

	st, err = store.AddPoints(ctx, user, 75)
	require.NoError(t, err)
	assert.Equal(t, int64(125), st.Points)
	assert.Equal(t, 2, st.Level)
}

func TestStore_AddPoints_ZeroDelta(t *testing.T) {
	// This test doesn't need a Redis connection
	store := &Store{}
	_, err := store.AddPoints(context.Background(), core.UserID("test-user"), 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "delta cannot be zero")
}

func TestStore_PutAndGet(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, core.Standing{UserID: "alice", Points: 650, Streak: 4}))

	st, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(650), st.Points)
	assert.Equal(t, 4, st.Level)
	assert.Equal(t, 4, st.Streak)
}

func TestStore_GetUnknownUser(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	st, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Points)
	assert.Equal(t, 1, st.Level)
}

func TestStore_Clear(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	_, err := store.AddPoints(ctx, "bob", 300)
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "bob"))

	st, err := store.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Points)
}
