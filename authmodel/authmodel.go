// Package authmodel is the wire contract between the auth server and the
// session client: route paths, the refresh cookie and the JSON bodies.
package authmodel

import "encoding/json"

// Route paths
const (
	RouteLogin        = "/auth/login"
	RouteRefreshToken = "/auth/refresh-token"
	RouteLogout       = "/auth/logout"
	RouteMe           = "/auth/me"

	RouteStudents = "/api/students"
	RouteStudent  = "/api/students/{id}"

	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)

const (
	// RefreshCookieName carries the opaque refresh token. It is HttpOnly and
	// scoped to RefreshCookiePath so it is only sent to the auth routes.
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/auth"

	// InvalidTokenMessage is the exact message of a 401/403 body that tells the
	// client its access token is invalid or expired and a refresh is worth trying.
	InvalidTokenMessage = "Invalid token"

	TokenTypeBearer = "Bearer"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
	StudentID string `json:"studentId,omitempty"`
}

type LoginResponse struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType,omitempty"`
	ExpiresIn   int      `json:"expiresIn,omitempty"` // seconds
	User        UserInfo `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType,omitempty"`
	ExpiresIn   int    `json:"expiresIn,omitempty"` // seconds
}

// MessageResponse is the body of every error response and of logout
type MessageResponse struct {
	Message string `json:"message"`
}

// Message extracts the message field of a JSON error body, or "" if the body
// is not a MessageResponse.
func Message(body []byte) string {
	var m MessageResponse
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	return m.Message
}

// IsInvalidTokenBody reports whether body carries InvalidTokenMessage
func IsInvalidTokenBody(body []byte) bool {
	return Message(body) == InvalidTokenMessage
}
