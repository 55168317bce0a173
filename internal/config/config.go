package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	StoreConfig
	ClientConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetAdminEmail() string
	GetAdminPassword() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Store
	Client
}

// v holds every setting. Keys are the environment variable names so that
// AutomaticEnv resolves them without a key replacer.
var v = newViper()

func newViper() *viper.Viper {
	vp := viper.New()
	vp.SetDefault(envVar, "DEV")
	vp.SetDefault(portEnvVar, "8080")
	vp.SetDefault(appNameVar, "Campus Auth")
	vp.SetDefault(baseURLVar, "http://localhost:8080")
	vp.SetDefault(adminEmailVar, "admin@campus.local")
	vp.SetDefault(allowedOriginsVar, "http://localhost:3000")
	vp.SetDefault(jwtIssuerVar, "campus-auth")
	vp.SetDefault(jwtAudienceVar, "campus-api")
	vp.SetDefault(accessTokenExpiryVar, 15*time.Minute)
	vp.SetDefault(refreshTokenExpiryVar, 7*24*time.Hour)
	vp.SetDefault(refreshTokenLengthVar, 32)
	vp.SetDefault(redisDBVar, 0)
	vp.SetDefault(apiBaseURLVar, "http://localhost:8080")
	vp.SetDefault(sessionFileVar, ".campus/session.json")
	vp.SetDefault(httpTimeoutVar, 30*time.Second)
	vp.AutomaticEnv()
	return vp
}

// New loads an optional dotenv file (DOTENV_FILE, default ".env") into the
// process environment and returns the environment backed configuration.
// Variables already present in the environment win over the file.
func New() (Config, error) {
	path := os.Getenv("DOTENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return mainConfig{}, nil
}
