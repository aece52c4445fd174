package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false), mr
}

func commitCookie(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetAuth(AuthSession{Token: "tok", Claims: Claims{UserID: "7", Role: RoleCook}, ExpiresAt: time.Now().Add(time.Hour)})
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Hola"})
	cookie := commitCookie(t, sm, sess)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)

	auth, ok := loaded.Auth()
	require.True(t, ok)
	assert.Equal(t, int64(7), auth.Claims.ID())
	assert.True(t, auth.HasRole(RoleAdmin, RoleCook))

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Hola", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestSessionUnknownIDIsNotAdopted(t *testing.T) {
	sm, _ := newTestSessions(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "forged"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "forged", sess.ID)
}

func TestSessionDestroyRemovesState(t *testing.T) {
	sm, mr := newTestSessions(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	commitCookie(t, sm, sess)
	require.Len(t, mr.Keys(), 1)

	sm.Destroy(sess)
	cookie := commitCookie(t, sm, sess)
	assert.Less(t, cookie.MaxAge, 0)
	assert.Empty(t, mr.Keys())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm, _ := newTestSessions(t)
	csrf := NewCSRFManager("csrf")
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "x"), ErrCSRFTokenMissing)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	require.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, token+"x"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
}
