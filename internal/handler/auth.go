package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // sentinel errors from the repository layer
	"log"          // server-side logging of failures
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/google/uuid"      // random session markers
	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/mkarpik/storefront-api/internal/config"     // app configuration
	"github.com/mkarpik/storefront-api/internal/middleware" // cookie helpers and identity
	"github.com/mkarpik/storefront-api/internal/repository" // DB repositories
	"github.com/mkarpik/storefront-api/internal/utils"      // token service
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *utils.TokenService
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *utils.TokenService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type revokeReq struct {
	Email string `json:"email"`
}

type userPart struct {
	UserID  uint64 `json:"UserID"`
	Email   string `json:"Email"`
	IsAdmin bool   `json:"IsAdmin"`
}

// Register: create a non-admin user. Tokens are not issued here; the
// client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user with this email already exists"})
		}
		log.Printf("auth: register failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to register"})
	}

	return c.JSON(http.StatusCreated, userPart{UserID: uid, Email: req.Email, IsAdmin: false})
}

// Login: verify credentials, rotate the session marker and set both
// cookies. A new marker invalidates every refresh token issued before
// this login.
//
// Status codes follow the original API: 404 when the email is unknown
// and 403 on a bad password. This does let a caller probe which emails
// are registered; kept as-is because clients depend on the distinction.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Printf("auth: login query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to login"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid credentials"})
	}

	session := uuid.NewString()

	refresh, err := h.Tokens.IssueRefresh(u.UserID, session)
	if err != nil {
		log.Printf("auth: issue refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to login"})
	}
	if err := h.Users.UpdateSession(ctx, u.UserID, &session); err != nil {
		log.Printf("auth: save session failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to login"})
	}
	access, err := h.Tokens.IssueAccess(u.UserID, u.Email, u.IsAdmin)
	if err != nil {
		log.Printf("auth: issue access failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to login"})
	}

	// Empty tokens mean no signing secret is configured; skip the cookie.
	if refresh != "" {
		middleware.SetRefreshCookie(c, refresh, int(h.Tokens.RefreshTTL().Seconds()))
	}
	if access != "" {
		middleware.SetAccessCookie(c, access, int(h.Tokens.AccessTTL().Seconds()))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged in successfully"})
}

// Logout: clear both cookies and the stored session marker, which
// immediately revokes every outstanding refresh token. Idempotent -
// logging out twice succeeds both times.
func (h *AuthHandler) Logout(c echo.Context) error {
	if id, ok := middleware.IdentityFrom(c); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Users.UpdateSession(ctx, id.UserID, nil); err != nil {
			log.Printf("auth: clear session failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to logout"})
		}
	}
	middleware.ClearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// RevokeSession: admin-only; clears the session marker of the user with
// the given email so their next refresh attempt fails with 403.
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	var req revokeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ClearSessionByEmail(ctx, req.Email); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Printf("auth: revoke session failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to revoke session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "session revoked"})
}
