package config

import "time"

const (
	jwtSecretVar          = "JWT_SECRET"
	jwtIssuerVar          = "JWT_ISSUER"
	jwtAudienceVar        = "JWT_AUDIENCE"
	accessTokenExpiryVar  = "ACCESS_TOKEN_EXPIRY"
	refreshTokenExpiryVar = "REFRESH_TOKEN_EXPIRY"
	refreshTokenLengthVar = "REFRESH_TOKEN_LENGTH"
)

type TokenConfig interface {
	GetJWTSecret() string
	GetIssuer() string
	GetAudience() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

// GetJWTSecret is empty unless configured; the server refuses to start without it outside DEV.
func (Tokens) GetJWTSecret() string {
	return GetEnv(jwtSecretVar, "")
}

func (Tokens) GetIssuer() string {
	return GetEnv(jwtIssuerVar, "campus-auth")
}

func (Tokens) GetAudience() string {
	return GetEnv(jwtAudienceVar, "campus-api")
}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return v.GetDuration(accessTokenExpiryVar)
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return v.GetDuration(refreshTokenExpiryVar)
}

func (Tokens) GetRefreshTokenLength() int {
	return v.GetInt(refreshTokenLengthVar) // bytes, 32 = 256 bits
}
