package server

import (
	"context"
	"net/http"
	"slices"

	"github.com/jrsteele09/campus-auth/authmodel"
	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
	"github.com/jrsteele09/campus-auth/token"
	"github.com/jrsteele09/campus-auth/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the claims RequireAuth stored on the request
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok && claims != nil
}

// RequireAuth validates the Bearer access token. Every failure (missing,
// malformed, expired, revoked) gets the same 401 body, which is what the
// client keys its refresh on.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeMessage(w, http.StatusUnauthorized, authmodel.InvalidTokenMessage)
				return
			}

			claims, err := s.auth.Authenticate(raw)
			if err != nil {
				s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("access token rejected")
				writeMessage(w, http.StatusUnauthorized, authmodel.InvalidTokenMessage)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole must run after RequireAuth. A valid token with the wrong role
// is a 403 that does not carry the invalid token message.
func (s *Server) RequireRole(roles ...users.RoleType) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, authmodel.InvalidTokenMessage)
				return
			}
			if !slices.Contains(roles, claims.Role) {
				s.log.Debug().Err(apperrors.ErrForbidden).Str("role", string(claims.Role)).Str("path", r.URL.Path).Msg("role not allowed")
				writeMessage(w, http.StatusForbidden, msgForbidden)
				return
			}
			next(w, r)
		}
	}
}
