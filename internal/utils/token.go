package utils // package utils provides helper functions for token creation and hashing

import (
	"time" // time utilities for computing expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessClaims are the claims carried by the short-lived auth_token
// cookie.  They contain everything a handler needs to act on behalf of
// the user, so validating an access token never touches the database.
type AccessClaims struct {
	UserID  uint64 `json:"UserID"`
	Email   string `json:"Email"`
	IsAdmin bool   `json:"IsAdmin"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims carried by the longer-lived refresh_token
// cookie.  Session is the opaque marker stored on the user row; a
// refresh token is only honoured while the two values still match.
type RefreshClaims struct {
	UserID  uint64 `json:"UserID"`
	Session string `json:"Session"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies both cookie tokens with a single
// symmetric HS256 secret.  It is constructed once in main and injected
// into the session middleware and auth handlers; nothing reads the
// secret from ambient globals.
type TokenService struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds a TokenService.  An empty secret is allowed:
// the issue methods then return an empty token, which callers treat as
// "skip setting the cookie".
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL exposes the configured access token lifetime so callers can
// align cookie Max-Age with token expiry.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL exposes the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs an HS256 access token for the given identity.  When
// no secret is configured it returns ("", nil) and the caller must not
// set the auth_token cookie.
func (s *TokenService) IssueAccess(userID uint64, email string, isAdmin bool) (string, error) {
	if s.secret == "" {
		return "", nil
	}
	now := time.Now().UTC()
	claims := AccessClaims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.secret))
}

// IssueRefresh signs an HS256 refresh token binding the user to the
// given session marker.  Same empty-secret contract as IssueAccess.
func (s *TokenService) IssueRefresh(userID uint64, session string) (string, error) {
	if s.secret == "" {
		return "", nil
	}
	now := time.Now().UTC()
	claims := RefreshClaims{
		UserID:  userID,
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.secret))
}

// VerifyAccess parses and validates an access token.  Expired or
// tampered tokens return an error from the jwt library.
func (s *TokenService) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (s *TokenService) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) verify(raw string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return jwt.ErrTokenUnverifiable
	}
	return nil
}
