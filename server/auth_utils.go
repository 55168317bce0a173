package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/campus-auth/authmodel"
	"github.com/jrsteele09/campus-auth/token/refresh"
	"github.com/jrsteele09/campus-auth/users"
)

// Response messages
const (
	msgInvalidCredentials  = "Invalid credentials"
	msgAccountBlocked      = "Account blocked"
	msgRefreshTokenInvalid = "Refresh token invalid"
	msgLoggedOut           = "Logged out"
	msgForbidden           = "Forbidden"
	msgStudentNotFound     = "Student not found"
	msgUserNotFound        = "User not found"
	msgBadRequest          = "Email and password are required"
	msgInternalError       = "Internal server error"
)

const (
	maxRequestBodyBytes     = 1 << 20
	defaultStudentPageLimit = 50
	maxStudentPageLimit     = 200
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, authmodel.MessageResponse{Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], authmodel.TokenTypeBearer) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func refreshTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(authmodel.RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, rt *refresh.StoredRefreshToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmodel.RefreshCookieName,
		Value:    rt.Token,
		Path:     authmodel.RefreshCookiePath,
		MaxAge:   int(rt.Exp.Sub(s.nowTime()).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmodel.RefreshCookieName,
		Value:    "",
		Path:     authmodel.RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func userInfo(u *users.User) authmodel.UserInfo {
	return authmodel.UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		StudentID: u.StudentID,
	}
}
