package middleware // middleware provides shared request processing for handlers

import (
	"context"  // context type used by the user loader dependency
	"net/http" // HTTP status codes and cookie primitives

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/mkarpik/storefront-api/internal/model" // user record returned by the loader
	"github.com/mkarpik/storefront-api/internal/utils" // token service
)

// Cookie names shared by the session guard and the auth handlers.
const (
	AccessCookie  = "auth_token"    // short-lived signed access token
	RefreshCookie = "refresh_token" // longer-lived signed refresh token
)

// identityKey is the context key under which the guard stores the
// resolved Identity.  Handlers read it back through IdentityFrom rather
// than touching the key directly.
const identityKey = "identity"

// Identity is the typed per-request value describing the authenticated
// user.  It is attached to the Echo context by the session guard and is
// the only channel through which handlers learn who is calling.
type Identity struct {
	UserID  uint64
	Email   string
	IsAdmin bool
}

// IdentityFrom returns the Identity stored by the session guard.  The
// second return value is false when the request never passed the guard.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// AttachIdentity stores the identity on the request context the way the
// session guard does.  Handler tests use it to fake an authenticated
// request.
func AttachIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

// UserLoader is the single store dependency of the session guard.  Only
// the refresh (slow) path calls it; validating a live access token does
// no lookups at all.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionGuard returns the auth middleware implementing the two-tier
// cookie scheme:
//
// Fast path: the auth_token cookie verifies -> attach identity, proceed.
//
// Slow path: the access token is missing, expired or tampered, so the
// refresh_token cookie is consulted.  No refresh cookie is 401.  An
// invalid refresh token, an unknown user, or a session marker that no
// longer matches the live value on the user row is 403 (the session was
// revoked, e.g. by logout elsewhere).  On success a fresh access token
// is minted from the user's current identity and set as the auth_token
// cookie before the request proceeds.
//
// Every rejection is terminal for the request; there is no retry.
func SessionGuard(tokens *utils.TokenService, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(AccessCookie); err == nil && cookie.Value != "" {
				if claims, err := tokens.VerifyAccess(cookie.Value); err == nil {
					AttachIdentity(c, Identity{
						UserID:  claims.UserID,
						Email:   claims.Email,
						IsAdmin: claims.IsAdmin,
					})
					return next(c)
				}
				// expired or tampered: fall through to the refresh flow
			}

			refresh, err := c.Cookie(RefreshCookie)
			if err != nil || refresh.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no refresh token"})
			}

			claims, err := tokens.VerifyRefresh(refresh.Value)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}

			user, err := users.GetByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}

			if user.Session == nil || *user.Session != claims.Session {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}

			token, err := tokens.IssueAccess(user.UserID, user.Email, user.IsAdmin)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
			}
			if token != "" {
				SetAccessCookie(c, token, int(tokens.AccessTTL().Seconds()))
			}

			AttachIdentity(c, Identity{
				UserID:  user.UserID,
				Email:   user.Email,
				IsAdmin: user.IsAdmin,
			})
			return next(c)
		}
	}
}

// SetAccessCookie writes the auth_token cookie.  http-only and strict
// same-site, matching the refresh cookie.
func SetAccessCookie(c echo.Context, token string, maxAge int) {
	setCookie(c, AccessCookie, token, maxAge)
}

// SetRefreshCookie writes the refresh_token cookie.
func SetRefreshCookie(c echo.Context, token string, maxAge int) {
	setCookie(c, RefreshCookie, token, maxAge)
}

// ClearAuthCookies expires both auth cookies on the response.
func ClearAuthCookies(c echo.Context) {
	setCookie(c, AccessCookie, "", -1)
	setCookie(c, RefreshCookie, "", -1)
}

func setCookie(c echo.Context, name, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
