package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/campus-auth/authmodel"
)

// Refresher performs the refresh exchange and returns a new access token.
// Any error is terminal for the request that triggered it.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// AuthAPI talks to the auth routes. The refresh token never passes through
// it: the server sets it as an HttpOnly cookie and the http.Client's jar
// sends it back.
type AuthAPI struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ Refresher = (*AuthAPI)(nil)

func NewAuthAPI(baseURL string, httpClient *http.Client) (*AuthAPI, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[NewAuthAPI] invalid base URL: %w", err)
	}
	if httpClient == nil {
		return nil, errors.New("[NewAuthAPI] http client is required")
	}
	return &AuthAPI{baseURL: u, httpClient: httpClient}, nil
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*authmodel.LoginResponse, error) {
	body, err := encodeBody(authmodel.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := a.post(ctx, authmodel.RouteLogin, body, "")
	if err != nil {
		return nil, err
	}
	var out authmodel.LoginResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("login response without access token")
	}
	return &out, nil
}

// Refresh posts to the refresh route with no body and no Authorization
// header. Only a 2xx carrying an access token counts as success.
func (a *AuthAPI) Refresh(ctx context.Context) (string, error) {
	resp, err := a.post(ctx, authmodel.RouteRefreshToken, nil, "")
	if err != nil {
		return "", err
	}
	var out authmodel.RefreshResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("refresh response without access token")
	}
	return out.AccessToken, nil
}

// Logout asks the server to revoke the refresh cookie and, when given, the
// access token.
func (a *AuthAPI) Logout(ctx context.Context, accessToken string) error {
	_, err := a.post(ctx, authmodel.RouteLogout, nil, accessToken)
	return err
}

func (a *AuthAPI) post(ctx context.Context, route string, body []byte, accessToken string) (*Response, error) {
	u, err := resolve(a.baseURL, route)
	if err != nil {
		return nil, err
	}
	resp, err := do(ctx, a.httpClient, http.MethodPost, u, nil, body, accessToken)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, &ResourceError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}
