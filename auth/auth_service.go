package auth

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
	"github.com/jrsteele09/campus-auth/token"
	"github.com/jrsteele09/campus-auth/token/refresh"
	"github.com/jrsteele09/campus-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users users.UserRepo // Repository for user data
}

// Result is what a successful login or refresh hands back to the transport layer
type Result struct {
	AccessToken  *token.AccessToken          // Signed JWT for the Authorization header
	RefreshToken *refresh.StoredRefreshToken // Opaque token for the HttpOnly cookie
	User         *users.User
}

// Service implements login, refresh and logout for the portal
type Service struct {
	repos   Repos
	tokens  *token.Manager
	refresh *refresh.Manager
	log     zerolog.Logger
	nowTime func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for auth events
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, tokens *token.Manager, refreshTokens *refresh.Manager, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("[NewService] refresh token manager is required")
	}

	s := &Service{
		repos:   repos,
		tokens:  tokens,
		refresh: refreshTokens,
		log:     zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login checks the credentials and issues an access and refresh token pair.
// Unknown users and wrong passwords both yield InvalidCredentialsErr.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = users.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, InvalidCredentialsErr
	}

	user, err := s.repos.Users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, InvalidCredentialsErr
		}
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}
	if !user.CheckPassword(password) {
		s.log.Info().Str("email", email).Msg("login rejected: password mismatch")
		return nil, InvalidCredentialsErr
	}
	if user.Blocked {
		return nil, UserBlockedErr
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] issue")
	}

	if err := s.repos.Users.SetLastLogin(email, s.nowTime()); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] SetLastLogin")
	}
	if err := s.repos.Users.SetLoggedIn(email, true); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] SetLoggedIn")
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login")
	return result, nil
}

// Refresh rotates the refresh token and issues a new access token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	stored, err := s.refresh.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(stored.UserID)
	if err != nil {
		_ = s.refresh.Revoke(ctx, stored.Token)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, InvalidRefreshTokenErr
		}
		return nil, errors.Wrap(err, "[Service.Refresh] GetByID")
	}
	if user.Blocked {
		_ = s.refresh.Revoke(ctx, stored.Token)
		return nil, UserBlockedErr
	}

	rotated, err := s.refresh.Rotate(ctx, stored.Token)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] Issue")
	}
	s.log.Debug().Str("user_id", user.ID).Msg("access token refreshed")
	return &Result{AccessToken: access, RefreshToken: rotated, User: user}, nil
}

// Logout revokes whatever credentials the caller still holds. Either token may
// be empty, invalid or already revoked; logout never fails because of that.
func (s *Service) Logout(ctx context.Context, refreshToken, accessToken string) error {
	var userID string

	if refreshToken != "" {
		if stored, err := s.refresh.Validate(ctx, refreshToken); err == nil {
			userID = stored.UserID
		}
		if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
			return errors.Wrap(err, "[Service.Logout] Revoke refresh token")
		}
	}

	if accessToken != "" {
		if claims, err := s.tokens.Verify(accessToken); err == nil {
			userID = claims.Subject
			if err := s.tokens.Revoke(claims); err != nil {
				return errors.Wrap(err, "[Service.Logout] Revoke access token")
			}
		}
	}

	if userID == "" {
		return nil
	}
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil
	}
	if err := s.repos.Users.SetLoggedIn(user.Email, false); err != nil {
		return errors.Wrap(err, "[Service.Logout] SetLoggedIn")
	}
	s.log.Info().Str("user_id", userID).Msg("logout")
	return nil
}

// Authenticate verifies a bearer access token
func (s *Service) Authenticate(accessToken string) (*token.Claims, error) {
	return s.tokens.Verify(accessToken)
}

// Me returns the user behind an authenticated request
func (s *Service) Me(_ context.Context, userID string) (*users.User, error) {
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Me] GetByID")
	}
	return user, nil
}

// RefreshTokenExpiry is the lifetime of issued refresh tokens, used for the cookie
func (s *Service) RefreshTokenExpiry() time.Duration {
	return s.refresh.Expiry()
}

func (s *Service) issue(ctx context.Context, user *users.User) (*Result, error) {
	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	rt, err := s.refresh.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Result{AccessToken: access, RefreshToken: rt, User: user}, nil
}
