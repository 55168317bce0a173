package redisrepo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jrsteele09/campus-auth/token/refresh"
	"github.com/jrsteele09/campus-auth/token/refresh/redisrepo"
	"github.com/stretchr/testify/require"
)

// Runs against a real server only when REDIS_TEST_ADDR is set.
func newRepo(t *testing.T) *redisrepo.Repo {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	repo, err := redisrepo.Dial(context.Background(), addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepo_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	rt := &refresh.StoredRefreshToken{Token: "tok-" + now.Format("150405.000000"), UserID: "user-redis", Iat: now, Exp: now.Add(time.Minute)}
	require.NoError(t, repo.Upsert(ctx, rt))

	got, err := repo.Get(ctx, rt.Token)
	require.NoError(t, err)
	require.Equal(t, rt.UserID, got.UserID)

	byUser, err := repo.GetByUserID(ctx, rt.UserID)
	require.NoError(t, err)
	require.Equal(t, rt.Token, byUser.Token)

	require.NoError(t, repo.Delete(ctx, rt.Token))
	_, err = repo.Get(ctx, rt.Token)
	require.ErrorIs(t, err, refresh.ErrNotFound)
	_, err = repo.GetByUserID(ctx, rt.UserID)
	require.ErrorIs(t, err, refresh.ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, rt.Token), refresh.ErrNotFound)
}
