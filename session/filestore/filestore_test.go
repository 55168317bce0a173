package filestore_test

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/campus-auth/session"
	"github.com/jrsteele09/campus-auth/session/filestore"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := filestore.New(path)

	state, err := store.Load()
	require.NoError(t, err)
	require.False(t, state.LoggedIn(), "missing file is an empty session")

	want := session.State{AccessToken: "tok-1", Role: "admin"}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := filestore.New(path).Load()
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := filestore.New(path).Load()
	require.Error(t, err)
}

func TestCookieJar_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	u, _ := url.Parse("http://localhost:8080/auth/login")
	refreshURL, _ := url.Parse("http://localhost:8080/auth/refresh-token")
	apiURL, _ := url.Parse("http://localhost:8080/api/students")

	jar, err := filestore.NewCookieJar(path)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{
		Name:     "refresh_token",
		Value:    "rt-1",
		Path:     "/auth",
		MaxAge:   3600,
		HttpOnly: true,
	}})

	reloaded, err := filestore.NewCookieJar(path)
	require.NoError(t, err)
	cookies := reloaded.Cookies(refreshURL)
	require.Len(t, cookies, 1)
	require.Equal(t, "rt-1", cookies[0].Value)
	require.Empty(t, reloaded.Cookies(apiURL), "cookie is scoped to /auth")

	// a deleting Set-Cookie removes it from disk too
	reloaded.SetCookies(u, []*http.Cookie{{Name: "refresh_token", Path: "/auth", MaxAge: -1}})
	again, err := filestore.NewCookieJar(path)
	require.NoError(t, err)
	require.Empty(t, again.Cookies(refreshURL))
}

func TestCookieJar_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	u, _ := url.Parse("http://localhost:8080/auth/login")

	jar, err := filestore.NewCookieJar(path)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "refresh_token", Value: "rt-1", Path: "/auth"}})
	require.NotEmpty(t, jar.Cookies(u))

	require.NoError(t, jar.Clear())
	require.Empty(t, jar.Cookies(u))

	reloaded, err := filestore.NewCookieJar(path)
	require.NoError(t, err)
	require.Empty(t, reloaded.Cookies(u))
}
