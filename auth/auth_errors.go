package auth

import (
	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
)

// Errors returned by Service. They alias the shared sentinels so callers can
// match with errors.Is against either package.
var (
	InvalidCredentialsErr  = apperrors.ErrInvalidCredentials
	UserBlockedErr         = apperrors.ErrUserBlocked
	UserNotFoundErr        = apperrors.ErrUserNotFound
	InvalidRefreshTokenErr = apperrors.ErrInvalidRefreshToken
	RefreshTokenExpiredErr = apperrors.ErrRefreshTokenExpired
)
