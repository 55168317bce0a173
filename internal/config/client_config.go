package config

import "time"

const (
	apiBaseURLVar  = "API_BASE_URL"
	sessionFileVar = "SESSION_FILE"
	httpTimeoutVar = "HTTP_TIMEOUT"
)

// ClientConfig is read by campusctl.
type ClientConfig interface {
	GetAPIBaseURL() string
	GetSessionFile() string
	GetHTTPTimeout() time.Duration
}

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080")
}

func (Client) GetSessionFile() string {
	return GetEnv(sessionFileVar, ".campus/session.json")
}

func (Client) GetHTTPTimeout() time.Duration {
	return v.GetDuration(httpTimeoutVar)
}
