package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/campus-auth/auth"
	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
	"github.com/jrsteele09/campus-auth/token"
	"github.com/jrsteele09/campus-auth/token/refresh"
	refreshrepofake "github.com/jrsteele09/campus-auth/token/refresh/repofake"
	"github.com/jrsteele09/campus-auth/users"
	fakeuserrepo "github.com/jrsteele09/campus-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	secretStr        = "1234"
	testUserEmail    = "john.doe@campus.edu"
	testUserPassword = "Password123"
)

type refreshConfig struct{}

func (refreshConfig) GetRefreshTokenLength() int           { return 32 }
func (refreshConfig) GetRefreshTokenExpiry() time.Duration { return 24 * time.Hour }

// testFixture holds all test dependencies
type testFixture struct {
	now      time.Time
	userRepo users.UserRepo
	tokens   *token.Manager
	service  *auth.Service
}

func (f *testFixture) Now() time.Time { return f.now }

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:      time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		userRepo: fakeuserrepo.NewFakeUserRepo(),
	}
	f.tokens = token.New(token.NewHMACSigner(secretStr), token.WithNowFunc(f.Now), token.WithAccessTokenExpiry(5*time.Minute))
	rm := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), refreshConfig{}, refresh.WithNowFunc(f.Now))

	svc, err := auth.NewService(auth.Repos{Users: f.userRepo}, f.tokens, rm, auth.WithNowTime(f.Now))
	require.NoError(t, err)
	f.service = svc
	return f
}

// createTestUser creates and stores a test user
func (f *testFixture) createTestUser(t *testing.T, role users.RoleType, blocked bool) *users.User {
	t.Helper()

	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	u := &users.User{
		ID:           "user-1",
		Email:        testUserEmail,
		Username:     "jdoe",
		PasswordHash: hash,
		Role:         role,
		Blocked:      blocked,
	}
	require.NoError(t, f.userRepo.Upsert(u))
	return u
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := auth.NewService(auth.Repos{}, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Users repo is required")
}

func TestService_Login(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createTestUser(t, users.RoleTeacher, false)

		res, err := f.service.Login(context.Background(), "  John.Doe@Campus.edu ", testUserPassword)
		require.NoError(t, err)
		require.NotEmpty(t, res.AccessToken.Token)
		require.NotEmpty(t, res.RefreshToken.Token)
		require.Equal(t, users.RoleTeacher, res.AccessToken.Claims.Role)

		u, err := f.userRepo.GetByID("user-1")
		require.NoError(t, err)
		require.True(t, u.LoggedIn)
		require.Equal(t, f.now, u.LastLogin)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createTestUser(t, users.RoleStudent, false)

		_, err := f.service.Login(context.Background(), testUserEmail, "nope")
		require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.service.Login(context.Background(), "ghost@campus.edu", testUserPassword)
		require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	})

	t.Run("blocked user", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createTestUser(t, users.RoleStudent, true)

		_, err := f.service.Login(context.Background(), testUserEmail, testUserPassword)
		require.ErrorIs(t, err, auth.UserBlockedErr)
	})
}

func TestService_Refresh(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, users.RoleStudent, false)
	ctx := context.Background()

	login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)
	_, err = f.service.Authenticate(login.AccessToken.Token)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	refreshed, err := f.service.Refresh(ctx, login.RefreshToken.Token)
	require.NoError(t, err)
	require.NotEqual(t, login.AccessToken.Token, refreshed.AccessToken.Token)
	require.NotEqual(t, login.RefreshToken.Token, refreshed.RefreshToken.Token)

	claims, err := f.service.Authenticate(refreshed.AccessToken.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)

	t.Run("old refresh token is consumed", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, login.RefreshToken.Token)
		require.ErrorIs(t, err, auth.InvalidRefreshTokenErr)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f.now = f.now.Add(25 * time.Hour)
		_, err := f.service.Refresh(ctx, refreshed.RefreshToken.Token)
		require.ErrorIs(t, err, auth.RefreshTokenExpiredErr)
	})
}

func TestService_RefreshBlockedUser(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, users.RoleStudent, false)
	ctx := context.Background()

	login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.NoError(t, f.userRepo.SetBlocked(testUserEmail, true))

	_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
	require.ErrorIs(t, err, auth.UserBlockedErr)

	require.NoError(t, f.userRepo.SetBlocked(testUserEmail, false))
	_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
	require.ErrorIs(t, err, auth.InvalidRefreshTokenErr, "blocked refresh revokes the session")
}

func TestService_Logout(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, users.RoleAdmin, false)
	ctx := context.Background()

	login, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, login.RefreshToken.Token, login.AccessToken.Token))

	_, err = f.service.Authenticate(login.AccessToken.Token)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
	require.ErrorIs(t, err, auth.InvalidRefreshTokenErr)

	u, err := f.service.Me(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, u.LoggedIn)

	// idempotent, and tolerant of garbage
	require.NoError(t, f.service.Logout(ctx, login.RefreshToken.Token, login.AccessToken.Token))
	require.NoError(t, f.service.Logout(ctx, "unknown", "not-a-jwt"))
	require.NoError(t, f.service.Logout(ctx, "", ""))
}
