package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
	"github.com/jrsteele09/campus-auth/users"
	"github.com/pkg/errors"
)

const defaultAccessTokenExpiry = 15 * time.Minute

// Claims are the access token claims the resource routes rely on
type Claims struct {
	Subject   string         // User ID
	Email     string         // User email
	Role      users.RoleType // Portal role
	ID        string         // jti, used for revocation
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessToken is a freshly signed access token
type AccessToken struct {
	Token     string
	Claims    Claims
	ExpiresIn time.Duration
}

// Manager issues and verifies access tokens
type Manager struct {
	signer            Signer
	issuer            string
	audience          string
	accessTokenExpiry time.Duration
	revokedCache      RevokedTokenCache
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		if expiry > 0 {
			m.accessTokenExpiry = expiry
		}
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithAudience(audience string) ManagerOption {
	return func(m *Manager) {
		m.audience = audience
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:            signer,
		issuer:            "campus-auth",
		audience:          "campus-api",
		accessTokenExpiry: defaultAccessTokenExpiry,
		revokedCache:      NewInMemoryRevokedTokenCache(),
		nowFunc:           time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issue signs a new access token for the user
func (m *Manager) Issue(user *users.User) (*AccessToken, error) {
	if user == nil {
		return nil, errors.New("Manager.Issue: nil user")
	}
	now := m.nowFunc()
	claims := Claims{
		Subject:   user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ID:        uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.accessTokenExpiry),
	}

	signed, err := m.signer.Sign(jwt.MapClaims{
		"iss":   m.issuer,
		"aud":   m.audience,
		"sub":   claims.Subject,
		"email": claims.Email,
		"role":  string(claims.Role),
		"iat":   claims.IssuedAt.Unix(),
		"exp":   claims.ExpiresAt.Unix(),
		"jti":   claims.ID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Manager.Issue Sign")
	}

	return &AccessToken{
		Token:     signed,
		Claims:    claims,
		ExpiresIn: m.accessTokenExpiry,
	}, nil
}

// Verify checks signature, issuer, audience, expiry and revocation and
// returns the token claims. Expired tokens yield ErrTokenExpired, revoked ones
// ErrTokenRevoked and everything else ErrInvalidToken.
func (m *Manager) Verify(rawToken string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, apperrors.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	tok, err := parser.Parse(rawToken, m.signer.GetVerificationKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims, err := claimsFromMap(mc)
	if err != nil {
		return nil, err
	}
	if m.revokedCache != nil && m.revokedCache.IsRevoked(claims.ID) {
		return nil, apperrors.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blacklists the token's jti until the token would have expired anyway
func (m *Manager) Revoke(claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return errors.New("Manager.Revoke: token missing jti claim")
	}
	if m.revokedCache == nil {
		return nil
	}
	return m.revokedCache.Add(claims.ID, claims.ExpiresAt)
}

// CleanupRevokedTokens drops revocation entries for tokens that have expired
func (m *Manager) CleanupRevokedTokens() {
	if m.revokedCache != nil {
		m.revokedCache.Cleanup(m.nowFunc())
	}
}

func claimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "missing sub claim")
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "missing exp claim")
	}
	claims := &Claims{
		Subject:   sub,
		ExpiresAt: exp.Time,
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	claims.Email, _ = mc["email"].(string)
	claims.ID, _ = mc["jti"].(string)
	if role, ok := mc["role"].(string); ok {
		claims.Role = users.RoleType(role)
	}
	return claims, nil
}
