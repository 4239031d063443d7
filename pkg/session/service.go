// Package session establishes authenticated sessions after successful
// account verification. A session is a signed JWT access token set as a
// cookie; validating inbound requests is left to middleware outside this
// module.
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AccessTokenName is the cookie name carrying the session token
	AccessTokenName = "access_token"

	// DefaultAccessTokenExpiry is the default session token lifetime
	DefaultAccessTokenExpiry = 15 * time.Minute
)

// Starter is the narrow interface the verification handlers use to
// establish a session after redemption
type Starter interface {
	StartSession(w http.ResponseWriter, accountID uuid.UUID) error
}

// SessionService issues JWT session tokens and sets them as cookies
type SessionService struct {
	secret            []byte
	issuer            string
	accessTokenExpiry time.Duration
	cookieSetter      CookieSetter
}

// SessionServiceOption is a function that configures a SessionService
type SessionServiceOption func(*SessionService)

// WithAccessTokenExpiry sets the session token lifetime
func WithAccessTokenExpiry(expiry time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.accessTokenExpiry = expiry
	}
}

// WithCookieSetter sets the cookie setter used for the session cookie
func WithCookieSetter(setter CookieSetter) SessionServiceOption {
	return func(s *SessionService) {
		s.cookieSetter = setter
	}
}

// WithIssuer sets the token issuer claim
func WithIssuer(issuer string) SessionServiceOption {
	return func(s *SessionService) {
		s.issuer = issuer
	}
}

// NewSessionService creates a new session service signing with the given
// secret
func NewSessionService(secret string, opts ...SessionServiceOption) *SessionService {
	service := &SessionService{
		secret:            []byte(secret),
		issuer:            "simple-verify",
		accessTokenExpiry: DefaultAccessTokenExpiry,
		cookieSetter:      NewCookieSetter(true, false),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// GenerateToken creates a signed session token for the account
func (s *SessionService) GenerateToken(accountID uuid.UUID) (string, time.Time, error) {
	now := time.Now().UTC()
	expiry := now.Add(s.accessTokenExpiry)

	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, expiry, nil
}

// ParseToken validates a session token and returns the account id it was
// issued for
func (s *SessionService) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid session token")
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject in session token: %w", err)
	}

	return accountID, nil
}

// StartSession issues a session token for the account and sets it as a
// cookie on the response
func (s *SessionService) StartSession(w http.ResponseWriter, accountID uuid.UUID) error {
	token, expiry, err := s.GenerateToken(accountID)
	if err != nil {
		return err
	}

	return s.cookieSetter.SetCookie(w, AccessTokenName, token, expiry)
}

// EndSession clears the session cookie on the response. The token itself
// stays valid until it expires; ending a session only removes it from the
// browser.
func (s *SessionService) EndSession(w http.ResponseWriter) error {
	return s.cookieSetter.ClearCookie(w, AccessTokenName)
}
