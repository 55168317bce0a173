package filestore

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// CookieJar is an http.CookieJar that also writes its cookies to a file, so
// the HttpOnly refresh cookie outlives the process.
type CookieJar struct {
	mu      sync.Mutex
	path    string
	jar     *cookiejar.Jar
	entries map[string]storedCookie
	nowFunc func() time.Time
}

var _ http.CookieJar = (*CookieJar)(nil)

type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
	SameSite int       `json:"sameSite,omitempty"`
}

func (c storedCookie) key() string {
	u, _ := url.Parse(c.URL)
	host := c.Domain
	if host == "" && u != nil {
		host = u.Hostname()
	}
	return host + ";" + c.Path + ";" + c.Name
}

func (c storedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: http.SameSite(c.SameSite),
	}
}

// NewCookieJar loads the jar persisted at path, dropping expired cookies
func NewCookieJar(path string) (*CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("[filestore.NewCookieJar] %w", err)
	}
	j := &CookieJar{
		path:    path,
		jar:     jar,
		entries: make(map[string]storedCookie),
		nowFunc: time.Now,
	}

	var stored []storedCookie
	if err := readJSON(path, &stored); err != nil {
		return nil, fmt.Errorf("[filestore.NewCookieJar] %w", err)
	}
	now := j.nowFunc()
	for _, c := range stored {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		u, err := url.Parse(c.URL)
		if err != nil {
			continue
		}
		j.entries[c.key()] = c
		j.jar.SetCookies(u, []*http.Cookie{c.cookie()})
	}
	return j, nil
}

func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// SetCookies records the cookies in memory and on disk. A failed write is
// not reported because http.CookieJar has no error return; the in-memory jar
// is still updated.
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := j.nowFunc()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
	for _, c := range cookies {
		sc := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: int(c.SameSite),
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!sc.Expires.IsZero() && !sc.Expires.After(now)) {
			delete(j.entries, sc.key())
			continue
		}
		j.entries[sc.key()] = sc
	}
	_ = j.save()
}

// Clear forgets every cookie and removes the file
func (j *CookieJar) Clear() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = jar
	j.entries = make(map[string]storedCookie)
	return j.save()
}

func (j *CookieJar) save() error {
	stored := make([]storedCookie, 0, len(j.entries))
	for _, c := range j.entries {
		stored = append(stored, c)
	}
	return writeJSON(j.path, stored)
}
