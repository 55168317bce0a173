package config

import (
	"fmt"
	"strings"
)

const (
	envVar            = "ENV"
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	baseURLVar        = "BASE_URL"
	adminEmailVar     = "ADMIN_EMAIL"
	adminPasswordVar  = "ADMIN_PASSWORD"
	allowedOriginsVar = "ALLOWED_ORIGINS"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Campus Auth")
}

// GetBaseURL returns the public URL of the server (e.g. "https://campus.example.edu").
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (EnvVars) GetAdminEmail() string {
	return GetEnv(adminEmailVar, "admin@campus.local")
}

// GetAdminPassword is empty unless configured; bootstrap generates one in that case.
func (EnvVars) GetAdminPassword() string {
	return GetEnv(adminPasswordVar, "")
}

func GetEnv(key, defaultValue string) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return defaultValue
	}
	return value
}
