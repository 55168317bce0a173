package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/campus-auth/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 32, c.GetRefreshTokenLength())
	require.Empty(t, c.GetRedisAddr())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", ":9090")
	t.Setenv("ENV", "prod")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "2m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.edu, https://b.edu")
	t.Setenv("REDIS_DB", "3")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "PROD", c.GetEnv())
	require.Equal(t, 2*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 3, c.GetRedisDB())
	require.Equal(t, "https://a.edu, https://b.edu", c.GetAllowedOrigins().String())
}

func TestConfig_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CAMPUS_TEST_APP_NAME=ignored\nSESSION_FILE=/tmp/campus-session.json\n"), 0o600))
	t.Setenv("DOTENV_FILE", path)
	t.Setenv("SESSION_FILE", "")
	os.Unsetenv("SESSION_FILE")
	t.Cleanup(func() { os.Unsetenv("CAMPUS_TEST_APP_NAME") })

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, "/tmp/campus-session.json", c.GetSessionFile())
}
