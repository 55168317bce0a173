package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jrsteele09/campus-auth/authmodel"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 10 << 20

// Request is a call to the resource API. Path is resolved against the
// client's base URL and may carry a query string. A path that resolves to
// another scheme or host is rejected with ErrForeignHost. A non-nil Body is
// sent as JSON, except []byte which is sent as is.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsAuthFailure reports whether the response says the access token is
// invalid or expired: 401 or 403 with the InvalidTokenMessage body. Any other
// 401/403 is an ordinary resource error.
func (r *Response) IsAuthFailure() bool {
	if r.StatusCode != http.StatusUnauthorized && r.StatusCode != http.StatusForbidden {
		return false
	}
	return authmodel.IsInvalidTokenBody(r.Body)
}

// DecodeJSON unmarshals the body into v
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return data, nil
	}
}

func resolve(base *url.URL, path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}
	u := base.ResolveReference(ref)
	if u.Scheme != base.Scheme || u.Host != base.Host {
		return nil, fmt.Errorf("%w: %q", ErrForeignHost, path)
	}
	return u, nil
}

// do performs a single HTTP exchange. body is re-read from the byte slice on
// every call so a request can be replayed. An empty accessToken sends no
// Authorization header.
func do(ctx context.Context, hc *http.Client, method string, u *url.URL, header http.Header, body []byte, accessToken string) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: authmodel.TokenTypeBearer}).SetAuthHeader(req)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &NetworkError{Method: method, URL: u.String(), Err: err}
	}
	if len(data) > maxResponseBytes {
		return nil, &NetworkError{Method: method, URL: u.String(), Err: fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxResponseBytes)}
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}
