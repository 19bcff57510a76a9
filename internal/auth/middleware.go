package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key can be read
// or shadowed by any package that knows the string. Only this package can
// create a key of type contextKey, so only this package can read or write
// the claims stored under it.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the session token from the "Authorization: Bearer <jwt>" header,
// verifies it, and stores the Claims in the request context. A missing,
// malformed, expired, or forged token ends the request with 401.
//
// BEARER HEADER, NOT COOKIE:
// The frontend and API live on different origins and the provider's SDK
// hands the frontend a token to attach itself. A header keeps the API free
// of cookie and CSRF concerns.
func RequireAuth(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				writeUnauthenticated(w, err.Error())
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("rejected session token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeUnauthenticated(w, "invalid or expired session token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from the Authorization header. The scheme
// is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("authorization header must use the Bearer scheme")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("bearer token is empty")
	}
	return token, nil
}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext retrieves the verified claims stored by RequireAuth.
// Returns (nil, false) on routes that are not behind RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil && c.Subject != ""
}

// writeUnauthenticated sends the same error body shape the handler package
// uses. It is duplicated here so auth does not depend on handler.
func writeUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthenticated",
		"message": message,
	})
}
