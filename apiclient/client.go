// Package apiclient is the session client of the campus API. It attaches the
// session's access token to every request and, when the server reports the
// token as invalid, runs one refresh exchange and replays the request once.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/jrsteele09/campus-auth/authmodel"
	"github.com/jrsteele09/campus-auth/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// Request outcomes recorded in metrics
const (
	outcomeOK             = "ok"
	outcomeNetworkError   = "network_error"
	outcomeResourceError  = "resource_error"
	outcomeSessionExpired = "session_expired"
	outcomeRetryExhausted = "retry_exhausted"
)

// Client is safe for concurrent use
type Client struct {
	baseURL       *url.URL
	session       *session.Session
	httpClient    *http.Client
	jar           http.CookieJar
	auth          *AuthAPI
	refresher     Refresher
	onAuthFailure func(error)
	registerer    prometheus.Registerer
	metrics       *metrics
	log           zerolog.Logger
	refreshGroup  singleflight.Group
}

type Option func(*Client)

// WithHTTPClient sets the transport. Timeouts belong on this client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCookieJar sets the jar holding the refresh cookie. It is used only
// when the http client has no jar of its own.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithRefresher replaces the default refresh exchange against the auth routes
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithAuthFailureFunc registers fn to be called when a request ends in
// ErrSessionExpired or ErrRetryExhausted, e.g. to send the user back to the
// login screen.
func WithAuthFailureFunc(fn func(error)) Option {
	return func(c *Client) {
		c.onAuthFailure = fn
	}
}

func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registerer = reg
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func New(baseURL string, sess *session.Session, options ...Option) (*Client, error) {
	if sess == nil {
		return nil, errors.New("[apiclient.New] session is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[apiclient.New] invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		session: sess,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}

	hc := http.Client{}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	if hc.Jar == nil {
		if c.jar == nil {
			if c.jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err != nil {
				return nil, fmt.Errorf("[apiclient.New] cookie jar: %w", err)
			}
		}
		hc.Jar = c.jar
	}
	c.jar = hc.Jar
	c.httpClient = &hc

	if c.auth, err = NewAuthAPI(baseURL, c.httpClient); err != nil {
		return nil, err
	}
	if c.refresher == nil {
		c.refresher = c.auth
	}
	if c.registerer != nil {
		if c.metrics, err = newMetrics(c.registerer); err != nil {
			return nil, fmt.Errorf("[apiclient.New] metrics: %w", err)
		}
	}
	return c, nil
}

func (c *Client) Session() *session.Session {
	return c.session
}

// Send dispatches req with the current access token. A 2xx response is
// returned as is. An auth failure triggers at most one refresh and one
// replay. Every other failure is returned unchanged as a *NetworkError or
// *ResourceError without touching the session.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	u, err := resolve(c.baseURL, req.Path)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, u, body, 0, c.session.AccessToken())
	if err != nil {
		c.metrics.request(outcomeOf(err))
		if c.onAuthFailure != nil && (errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrRetryExhausted)) {
			c.onAuthFailure(err)
		}
		return nil, err
	}
	c.metrics.request(outcomeOK)
	return resp, nil
}

// send is one attempt. attempt is 0 for the original request and 1 for the
// replay; it is never incremented past that.
func (c *Client) send(ctx context.Context, req Request, u *url.URL, body []byte, attempt int, accessToken string) (*Response, error) {
	resp, err := do(ctx, c.httpClient, req.Method, u, req.Header, body, accessToken)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", req.Method).Str("path", req.Path).Int("status", resp.StatusCode).Int("attempt", attempt).Msg("api request")

	if resp.Success() {
		return resp, nil
	}
	if !resp.IsAuthFailure() {
		return nil, &ResourceError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if attempt > 0 {
		c.log.Warn().Str("path", req.Path).Int("status", resp.StatusCode).Msg("replay rejected after refresh")
		return nil, &RetryExhaustedError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	newToken, err := c.refreshAfter(ctx, accessToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &NetworkError{Method: req.Method, URL: u.String(), Err: ctx.Err()}
		}
		return nil, &SessionExpiredError{Err: err}
	}
	c.metrics.replay()
	return c.send(ctx, req, u, body, attempt+1, newToken)
}

// refreshAfter returns a token to replay with after staleToken was rejected.
// If the session already holds a different token, another request has
// refreshed in the meantime and that token is used without a new exchange.
// Concurrent callers share one in-flight exchange.
func (c *Client) refreshAfter(ctx context.Context, staleToken string) (string, error) {
	if current := c.session.AccessToken(); current != "" && current != staleToken {
		c.metrics.refresh("skipped")
		return current, nil
	}

	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		// The exchange outlives a cancelled caller so the waiters sharing it
		// still get a result.
		token, err := c.refresher.Refresh(context.WithoutCancel(ctx))
		if err != nil {
			c.metrics.refresh("failed")
			c.log.Info().Err(err).Msg("refresh exchange failed")
			return "", err
		}
		if err := c.session.UpdateAccessToken(staleToken, token); err != nil {
			if errors.Is(err, session.ErrSessionChanged) {
				c.metrics.refresh("discarded")
				c.log.Info().Msg("session changed during refresh, token discarded")
				return "", err
			}
			c.log.Warn().Err(err).Msg("refreshed token not persisted")
		}
		c.metrics.refresh("ok")
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// GetJSON sends a GET and decodes a successful response into out
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Send(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.DecodeJSON(out)
}

// Login exchanges credentials for a session. The refresh cookie lands in the
// cookie jar.
func (c *Client) Login(ctx context.Context, email, password string) (*authmodel.UserInfo, error) {
	resp, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := c.session.Login(resp.AccessToken, resp.User.Role); err != nil {
		return nil, err
	}
	c.log.Info().Str("user_id", resp.User.ID).Str("role", resp.User.Role).Msg("logged in")
	return &resp.User, nil
}

// Logout tells the server and then clears the local session whatever the
// server call returned. The server error, if any, is returned afterwards.
func (c *Client) Logout(ctx context.Context) error {
	err := c.auth.Logout(ctx, c.session.AccessToken())
	if err != nil {
		c.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}

	if clearErr := c.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	if jar, ok := c.jar.(interface{ Clear() error }); ok {
		if clearErr := jar.Clear(); clearErr != nil && err == nil {
			err = clearErr
		}
	}
	return err
}

func outcomeOf(err error) string {
	var netErr *NetworkError
	switch {
	case errors.Is(err, ErrSessionExpired):
		return outcomeSessionExpired
	case errors.Is(err, ErrRetryExhausted):
		return outcomeRetryExhausted
	case errors.As(err, &netErr):
		return outcomeNetworkError
	}
	return outcomeResourceError
}
