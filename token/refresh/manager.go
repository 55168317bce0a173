package refresh

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
)

// ErrNotFound is returned by repos for unknown tokens
var ErrNotFound = errors.New("refresh token not found")

const (
	defaultTokenLength = 32
	defaultExpiry      = 7 * 24 * time.Hour
)

// Config is the subset of configuration the manager needs
type Config interface {
	GetRefreshTokenLength() int
	GetRefreshTokenExpiry() time.Duration
}

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo    Repo
	length  int
	expiry  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc overrides the clock (tests)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg Config, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		length:  defaultTokenLength,
		expiry:  defaultExpiry,
		nowFunc: time.Now,
	}
	if cfg != nil {
		if l := cfg.GetRefreshTokenLength(); l > 0 {
			m.length = l
		}
		if e := cfg.GetRefreshTokenExpiry(); e > 0 {
			m.expiry = e
		}
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Expiry is the lifetime of newly created tokens
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Create generates a new refresh token and stores it. Any previous token of the
// user is deleted first (single refresh token per user).
func (m *Manager) Create(ctx context.Context, userID string) (*StoredRefreshToken, error) {
	existing, err := m.repo.GetByUserID(ctx, userID)
	switch {
	case err == nil && existing != nil:
		if err := m.repo.Delete(ctx, existing.Token); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, apperrors.Wrapf(err, "failed to delete existing refresh token")
		}
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, apperrors.Wrapf(err, "failed to look up existing refresh token")
	}

	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, apperrors.Wrapf(err, "failed to generate random bytes")
	}

	now := m.nowFunc()
	rt := &StoredRefreshToken{
		Token:  hex.EncodeToString(tokenBytes),
		UserID: userID,
		Iat:    now,
		Exp:    now.Add(m.expiry),
	}
	if err := m.repo.Upsert(ctx, rt); err != nil {
		return nil, apperrors.Wrapf(err, "failed to store refresh token")
	}
	return rt, nil
}

// Validate returns the stored token if it exists and has not expired. Expired
// tokens are deleted.
func (m *Manager) Validate(ctx context.Context, token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	rt, err := m.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.Wrapf(err, "failed to get refresh token")
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(ctx, token)
		return nil, apperrors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Rotate consumes a valid refresh token and issues its replacement
func (m *Manager) Rotate(ctx context.Context, token string) (*StoredRefreshToken, error) {
	rt, err := m.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Delete(ctx, rt.Token); err != nil {
		if errors.Is(err, ErrNotFound) {
			// consumed concurrently
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.Wrapf(err, "failed to delete rotated refresh token")
	}
	return m.Create(ctx, rt.UserID)
}

// Revoke deletes a refresh token; unknown tokens are ignored
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.Delete(ctx, token); err != nil && !errors.Is(err, ErrNotFound) {
		return apperrors.Wrapf(err, "failed to revoke refresh token")
	}
	return nil
}

// IsExpired checks if a refresh token has expired
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	if !rt.Exp.IsZero() {
		return !m.nowFunc().Before(rt.Exp)
	}
	return m.nowFunc().Sub(rt.Iat) > m.expiry
}
