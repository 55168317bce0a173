package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/campus-auth/apiclient"
	"github.com/jrsteele09/campus-auth/authmodel"
	"github.com/jrsteele09/campus-auth/session"
	"github.com/jrsteele09/campus-auth/session/memstore"
	"github.com/stretchr/testify/require"
)

func newSessionClient(t *testing.T, f *testFixture) (*apiclient.Client, *session.Session) {
	t.Helper()
	sess, err := session.New(memstore.New(session.State{}))
	require.NoError(t, err)
	client, err := apiclient.New(f.srv.URL, sess)
	require.NoError(t, err)
	return client, sess
}

func TestSessionFlow_RefreshAndReplay(t *testing.T) {
	f := setupTestFixture(t)
	client, sess := newSessionClient(t, f)
	ctx := context.Background()

	var events []session.EventKind
	sess.Subscribe(func(e session.Event) { events = append(events, e.Kind) })

	user, err := client.Login(ctx, teacherEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, "teacher", user.Role)
	require.Equal(t, "teacher", sess.Role())
	first := sess.AccessToken()

	var list struct {
		Students []map[string]any `json:"students"`
	}
	require.NoError(t, client.GetJSON(ctx, authmodel.RouteStudents, &list))
	require.Len(t, list.Students, 2)
	require.Equal(t, first, sess.AccessToken())

	// the access token expires, the refresh cookie does not
	f.clock.Advance(accessLifetime + time.Minute)

	require.NoError(t, client.GetJSON(ctx, authmodel.RouteStudents, &list))
	require.NotEqual(t, first, sess.AccessToken())
	require.Equal(t, "teacher", sess.Role())

	require.NoError(t, client.Logout(ctx))
	require.Empty(t, sess.AccessToken())
	require.Equal(t, []session.EventKind{session.EventLogin, session.EventRefresh, session.EventLogout}, events)

	// nothing left to refresh with
	_, err = client.Send(ctx, apiclient.Request{Method: http.MethodGet, Path: authmodel.RouteStudents})
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)
}

func TestSessionFlow_ExpiredRefreshTokenEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	client, sess := newSessionClient(t, f)
	ctx := context.Background()

	_, err := client.Login(ctx, studentEmail, testPassword)
	require.NoError(t, err)
	before := sess.AccessToken()

	f.clock.Advance(48 * time.Hour)
	err = client.GetJSON(ctx, "/api/students/s-1", nil)
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)
	require.Equal(t, before, sess.AccessToken(), "session untouched by a failed refresh")
}

func TestSessionFlow_RoleDenialIsNotRefreshed(t *testing.T) {
	f := setupTestFixture(t)
	client, sess := newSessionClient(t, f)
	ctx := context.Background()

	_, err := client.Login(ctx, studentEmail, testPassword)
	require.NoError(t, err)
	before := sess.AccessToken()

	err = client.GetJSON(ctx, authmodel.RouteStudents, nil)
	var resErr *apiclient.ResourceError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, http.StatusForbidden, resErr.StatusCode)
	require.Equal(t, before, sess.AccessToken())
}

func TestSessionFlow_BlockedUserCannotRefresh(t *testing.T) {
	f := setupTestFixture(t)
	client, _ := newSessionClient(t, f)
	ctx := context.Background()

	_, err := client.Login(ctx, teacherEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.users.SetBlocked(teacherEmail, true))

	f.clock.Advance(accessLifetime + time.Minute)
	err = client.GetJSON(ctx, authmodel.RouteStudents, nil)
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)

	var resErr *apiclient.ResourceError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, "Account blocked", resErr.Message())
}
