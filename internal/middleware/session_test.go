package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mkarpik/storefront-api/internal/model"
	"github.com/mkarpik/storefront-api/internal/utils"
)

// stubLoader counts lookups so tests can assert the fast path never
// touches the store.
type stubLoader struct {
	user  model.User
	err   error
	calls int
}

func (s *stubLoader) GetByID(ctx context.Context, id uint64) (model.User, error) {
	s.calls++
	if s.err != nil {
		return model.User{}, s.err
	}
	return s.user, nil
}

func strPtr(s string) *string { return &s }

func runGuard(t *testing.T, tokens *utils.TokenService, loader *stubLoader, cookies ...*http.Cookie) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		require.True(t, ok, "identity should be attached before the handler runs")
		return c.JSON(http.StatusOK, echo.Map{"UserID": id.UserID})
	}
	err := SessionGuard(tokens, loader)(next)(c)
	return rec, err
}

func TestGuardFastPathSkipsStore(t *testing.T) {
	tokens := utils.NewTokenService("s", time.Minute, time.Hour)
	loader := &stubLoader{}

	access, err := tokens.IssueAccess(11, "a@example.com", false)
	require.NoError(t, err)

	rec, err := runGuard(t, tokens, loader, &http.Cookie{Name: AccessCookie, Value: access})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, loader.calls, "fast path must not hit the store")
}

func TestGuardNoCookiesIs401(t *testing.T) {
	tokens := utils.NewTokenService("s", time.Minute, time.Hour)
	loader := &stubLoader{}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := SessionGuard(tokens, loader)(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, loader.calls)
}

func TestGuardRefreshMintsNewAccessCookie(t *testing.T) {
	// Access TTL in the past: every issued access token is expired, so
	// the guard must walk the refresh path.
	expired := utils.NewTokenService("s", -time.Second, time.Hour)
	staleAccess, err := expired.IssueAccess(11, "a@example.com", false)
	require.NoError(t, err)

	tokens := utils.NewTokenService("s", time.Minute, time.Hour)
	refresh, err := tokens.IssueRefresh(11, "sess-1")
	require.NoError(t, err)

	loader := &stubLoader{user: model.User{
		UserID: 11, Email: "a@example.com", IsAdmin: false, Session: strPtr("sess-1"),
	}}

	rec, err := runGuard(t, tokens, loader,
		&http.Cookie{Name: AccessCookie, Value: staleAccess},
		&http.Cookie{Name: RefreshCookie, Value: refresh})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, loader.calls, "refresh path does exactly one lookup")

	var minted *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == AccessCookie {
			minted = ck
		}
	}
	require.NotNil(t, minted, "a fresh auth_token cookie must be set")
	require.NotEmpty(t, minted.Value)
	require.True(t, minted.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, minted.SameSite)

	claims, err := tokens.VerifyAccess(minted.Value)
	require.NoError(t, err)
	require.Equal(t, uint64(11), claims.UserID)
}

func TestGuardStaleSessionMarkerIs403(t *testing.T) {
	tokens := utils.NewTokenService("s", time.Minute, time.Hour)
	refresh, err := tokens.IssueRefresh(11, "old-session")
	require.NoError(t, err)

	// The user logged in elsewhere: live marker differs.
	loader := &stubLoader{user: model.User{
		UserID: 11, Email: "a@example.com", Session: strPtr("new-session"),
	}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = SessionGuard(tokens, loader)(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardClearedSessionMarkerIs403(t *testing.T) {
	// Logout (or admin revoke) cleared the marker entirely.
	tokens := utils.NewTokenService("s", time.Minute, time.Hour)
	refresh, err := tokens.IssueRefresh(11, "old-session")
	require.NoError(t, err)

	loader := &stubLoader{user: model.User{UserID: 11, Email: "a@example.com", Session: nil}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = SessionGuard(tokens, loader)(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardUnknownUserIs403(t *testing.T) {
	tokens := utils.NewTokenService("s", time.Minute, time.Hour)
	refresh, err := tokens.IssueRefresh(99, "sess")
	require.NoError(t, err)

	loader := &stubLoader{err: sql.ErrNoRows}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = SessionGuard(tokens, loader)(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardGarbageRefreshIs403(t *testing.T) {
	tokens := utils.NewTokenService("s", time.Minute, time.Hour)
	loader := &stubLoader{}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := SessionGuard(tokens, loader)(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, loader.calls)
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()

	run := func(identity *Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if identity != nil {
			c.Set(identityKey, *identity)
		}
		_ = RequireAdmin()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
		return rec
	}

	require.Equal(t, http.StatusForbidden, run(nil).Code)
	require.Equal(t, http.StatusForbidden, run(&Identity{UserID: 1}).Code)
	require.Equal(t, http.StatusOK, run(&Identity{UserID: 1, IsAdmin: true}).Code)
}
