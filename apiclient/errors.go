package apiclient

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/campus-auth/authmodel"
)

var (
	// ErrSessionExpired means the access token was rejected and the refresh
	// exchange failed. The user has to log in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrRetryExhausted means the request was rejected again after a
	// successful refresh and replay.
	ErrRetryExhausted = errors.New("retry exhausted")

	// ErrForeignHost rejects a request path that resolves outside the API
	// base URL. The access token is never sent there.
	ErrForeignHost = errors.New("request path leaves the API host")

	// ErrResponseTooLarge is wrapped in a NetworkError when a response body
	// exceeds the read limit.
	ErrResponseTooLarge = errors.New("response body too large")
)

// NetworkError is a transport failure: no complete HTTP response was received
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ResourceError is any non-2xx response that is not an auth failure
type ResourceError struct {
	StatusCode int
	Body       []byte
}

func (e *ResourceError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("resource error: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("resource error: status %d", e.StatusCode)
}

// Message is the message field of a JSON error body, if any
func (e *ResourceError) Message() string {
	return authmodel.Message(e.Body)
}

// SessionExpiredError wraps the reason the refresh exchange failed
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	if e.Err == nil {
		return ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%v: refresh failed: %v", ErrSessionExpired, e.Err)
}

func (e *SessionExpiredError) Is(target error) bool {
	return target == ErrSessionExpired
}

func (e *SessionExpiredError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError carries the auth failure returned by the replay
type RetryExhaustedError struct {
	StatusCode int
	Body       []byte
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%v: replay rejected with status %d", ErrRetryExhausted, e.StatusCode)
}

func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}
