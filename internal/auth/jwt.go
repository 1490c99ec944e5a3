// Package auth provides JWT issuance/verification, password hashing, and the
// bearer-token middleware for protected routes.
//
// The token is stateless: everything a handler needs about the caller
// (id, name, email) is inside the signed payload, so no session store or DB
// lookup is required to authenticate a request. The HMAC signature ensures
// the claims cannot be tampered with without the secret key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tradecircle"

// DefaultTokenTTL is the token lifetime used when no override is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the identity embedded in every issued token.
//
// UserID, Name and Email mirror the users row at issue time; a renamed user
// keeps the old name in outstanding tokens until they log in again. That is
// acceptable — ownership checks use only UserID, which is immutable.
type Claims struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer tokens with a shared HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production; anything under 16 is rejected
// outright because it is trivially brute-forceable.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Generate issues a signed token carrying the given identity.
func (s *TokenService) Generate(userID int64, name, email string) (string, error) {
	now := time.Now()

	c := Claims{
		UserID: userID,
		Name:   name,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// GenerateWithDuration issues a token with a custom lifetime. Used by tests
// to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID int64, name, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		UserID: userID,
		Name:   name,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns its claims.
//
// Checks performed by the jwt library: signature, expiry, issuer, and that
// the algorithm really is HS256 — pinning the method closes the classic
// "alg:none" confusion attack.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.UserID == 0 {
		return nil, fmt.Errorf("auth: token has no user id")
	}

	return c, nil
}
