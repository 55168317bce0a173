package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/campus-auth/session"
	"github.com/jrsteele09/campus-auth/session/memstore"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	session.Store
	saveErr  error
	clearErr error
}

func (f failingStore) Save(s session.State) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(s)
}

func (f failingStore) Clear() error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.Store.Clear()
}

func TestNew_LoadsPersistedState(t *testing.T) {
	store := memstore.New(session.State{AccessToken: "tok-1", Role: "teacher"})

	s, err := session.New(store)
	require.NoError(t, err)
	require.Equal(t, "tok-1", s.AccessToken())
	require.Equal(t, "teacher", s.Role())
	require.True(t, s.State().LoggedIn())
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := session.New(nil)
	require.Error(t, err)
}

func TestSession_Lifecycle(t *testing.T) {
	store := memstore.New(session.State{})
	s, err := session.New(store)
	require.NoError(t, err)
	require.Empty(t, s.AccessToken())

	var events []session.Event
	unsubscribe := s.Subscribe(func(e session.Event) { events = append(events, e) })

	require.NoError(t, s.Login("tok-1", "student"))
	require.NoError(t, s.UpdateAccessToken("tok-1", "tok-2"))
	require.Equal(t, "tok-2", s.AccessToken())
	require.Equal(t, "student", s.Role(), "refresh keeps the role")

	persisted, _ := store.Load()
	require.Equal(t, session.State{AccessToken: "tok-2", Role: "student"}, persisted)

	require.NoError(t, s.Clear())
	require.Empty(t, s.AccessToken())
	persisted, _ = store.Load()
	require.False(t, persisted.LoggedIn())

	require.Len(t, events, 3)
	require.Equal(t, session.EventLogin, events[0].Kind)
	require.Equal(t, session.EventRefresh, events[1].Kind)
	require.Equal(t, "tok-2", events[1].State.AccessToken)
	require.Equal(t, session.EventLogout, events[2].Kind)

	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Login("tok-3", "admin"))
	require.Len(t, events, 3)
}

func TestSession_ClearSurvivesStoreFailure(t *testing.T) {
	store := failingStore{Store: memstore.New(session.State{AccessToken: "tok-1"}), clearErr: errors.New("disk gone")}
	s, err := session.New(store)
	require.NoError(t, err)

	var loggedOut bool
	s.Subscribe(func(e session.Event) { loggedOut = e.Kind == session.EventLogout })

	err = s.Clear()
	require.Error(t, err)
	require.Empty(t, s.AccessToken())
	require.True(t, loggedOut)
}

func TestSession_SaveFailureIsReported(t *testing.T) {
	store := failingStore{Store: memstore.New(session.State{}), saveErr: errors.New("read-only")}
	s, err := session.New(store)
	require.NoError(t, err)

	var events int
	s.Subscribe(func(session.Event) { events++ })

	err = s.Login("tok-1", "admin")
	require.Error(t, err)
	require.Empty(t, s.AccessToken(), "state unchanged when the save fails")
	require.Empty(t, s.Role())
	require.Zero(t, events)
}

func TestSession_UpdateAccessTokenKeepsFailedSaveOut(t *testing.T) {
	inner := memstore.New(session.State{AccessToken: "tok-1", Role: "student"})
	s, err := session.New(failingStore{Store: inner, saveErr: errors.New("read-only")})
	require.NoError(t, err)

	require.Error(t, s.UpdateAccessToken("tok-1", "tok-2"))
	require.Equal(t, "tok-1", s.AccessToken())
}

func TestSession_UpdateAccessTokenNeedsRejectedToken(t *testing.T) {
	store := memstore.New(session.State{AccessToken: "tok-1", Role: "teacher"})
	s, err := session.New(store)
	require.NoError(t, err)

	var events []session.EventKind
	s.Subscribe(func(e session.Event) { events = append(events, e.Kind) })

	require.ErrorIs(t, s.UpdateAccessToken("tok-0", "tok-2"), session.ErrSessionChanged)
	require.Equal(t, "tok-1", s.AccessToken())

	require.NoError(t, s.Clear())
	require.ErrorIs(t, s.UpdateAccessToken("tok-1", "tok-2"), session.ErrSessionChanged)
	require.ErrorIs(t, s.UpdateAccessToken("", "tok-2"), session.ErrSessionChanged)
	require.Empty(t, s.AccessToken())
	require.Empty(t, s.Role())

	persisted, _ := store.Load()
	require.False(t, persisted.LoggedIn())
	require.Equal(t, []session.EventKind{session.EventLogout}, events)
}

func TestSession_Token(t *testing.T) {
	exp := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	s, err := session.New(memstore.New(session.State{}))
	require.NoError(t, err)
	require.Nil(t, s.Token())

	require.NoError(t, s.Login(raw, "student"))
	tok := s.Token()
	require.Equal(t, raw, tok.AccessToken)
	require.Equal(t, "Bearer", tok.Type())
	require.True(t, exp.Equal(tok.Expiry))

	require.NoError(t, s.UpdateAccessToken(raw, "opaque"))
	require.True(t, s.Token().Expiry.IsZero())
}

func TestEventKind_String(t *testing.T) {
	require.Equal(t, "login", session.EventLogin.String())
	require.Equal(t, "refresh", session.EventRefresh.String())
	require.Equal(t, "logout", session.EventLogout.String())
}
