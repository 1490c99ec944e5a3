package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// errMissingAuth covers an absent or malformed Authorization header; the
// caller maps it and all validation failures to the same 401.
var errMissingAuth = errors.New("auth: missing or malformed authorization header")

// contextKey is an unexported type for context keys in this package. Only
// this package can create a key of this type, so no other package can read
// or shadow the claims we store in the request context.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth enforces authentication on protected routes.
//
// It reads the token from the "Authorization: Bearer <token>" header,
// validates it, and stores the claims in the request context. Missing,
// malformed, or invalid tokens stop the chain with 401 before any store is
// touched.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractClaims(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the authenticated caller's claims.
// Returns (nil, false) if the request is anonymous.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// extractClaims parses the Authorization header and validates the token.
func extractClaims(r *http.Request, tokens *TokenService) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errMissingAuth
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errMissingAuth
	}

	return tokens.Validate(strings.TrimSpace(parts[1]))
}
