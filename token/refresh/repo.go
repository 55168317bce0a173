package refresh

import (
	"context"
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string, delivered as an
// HttpOnly cookie). All other fields are server-side metadata.
type StoredRefreshToken struct {
	Token  string    `json:"token"`   // The actual random token string (sent to client)
	UserID string    `json:"user_id"` // Owner of the session
	Iat    time.Time `json:"iat"`     // Issued at time
	Exp    time.Time `json:"exp"`     // Expiry time
}

// Repo manages server-side storage of refresh token metadata keyed by the token string.
// Implementations return ErrNotFound for unknown tokens.
type Repo interface {
	Upsert(ctx context.Context, refreshToken *StoredRefreshToken) error
	Delete(ctx context.Context, token string) error
	Get(ctx context.Context, token string) (*StoredRefreshToken, error)
	GetByUserID(ctx context.Context, userID string) (*StoredRefreshToken, error)
}
