package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/campus-auth/auth"
	"github.com/jrsteele09/campus-auth/authmodel"
	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
)

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.LoginRequest
		if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, msgBadRequest)
			return
		}

		res, err := s.auth.Login(r.Context(), req.Email, req.Password)
		switch {
		case errors.Is(err, auth.InvalidCredentialsErr):
			writeMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		case errors.Is(err, auth.UserBlockedErr):
			writeMessage(w, http.StatusForbidden, msgAccountBlocked)
			return
		case err != nil:
			s.internalError(w, r, err)
			return
		}

		s.setRefreshCookie(w, res.RefreshToken)
		writeJSON(w, http.StatusOK, authmodel.LoginResponse{
			AccessToken: res.AccessToken.Token,
			TokenType:   authmodel.TokenTypeBearer,
			ExpiresIn:   int(res.AccessToken.ExpiresIn.Seconds()),
			User:        userInfo(res.User),
		})
	}
}

// RefreshTokenHandler trades the refresh cookie for a new access token and
// rotates the cookie. It never answers with the invalid token message, so a
// failed refresh cannot itself trigger another refresh.
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := refreshTokenFromCookie(r)
		if rt == "" {
			writeMessage(w, http.StatusUnauthorized, msgRefreshTokenInvalid)
			return
		}

		res, err := s.auth.Refresh(r.Context(), rt)
		switch {
		case errors.Is(err, auth.InvalidRefreshTokenErr), errors.Is(err, auth.RefreshTokenExpiredErr):
			s.clearRefreshCookie(w)
			writeMessage(w, http.StatusUnauthorized, msgRefreshTokenInvalid)
			return
		case errors.Is(err, auth.UserBlockedErr):
			s.clearRefreshCookie(w)
			writeMessage(w, http.StatusForbidden, msgAccountBlocked)
			return
		case err != nil:
			s.internalError(w, r, err)
			return
		}

		s.setRefreshCookie(w, res.RefreshToken)
		writeJSON(w, http.StatusOK, authmodel.RefreshResponse{
			AccessToken: res.AccessToken.Token,
			TokenType:   authmodel.TokenTypeBearer,
			ExpiresIn:   int(res.AccessToken.ExpiresIn.Seconds()),
		})
	}
}

// LogoutHandler revokes whatever the caller presents and always clears the
// cookie. The bearer token is optional.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context(), refreshTokenFromCookie(r), bearerToken(r)); err != nil {
			s.log.Error().Err(err).Msg("logout")
		}
		s.clearRefreshCookie(w)
		writeMessage(w, http.StatusOK, msgLoggedOut)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		user, err := s.auth.Me(r.Context(), claims.Subject)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userInfo(user))
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	writeMessage(w, http.StatusInternalServerError, msgInternalError)
}
