// Package auth verifies identity-provider session tokens and fetches user
// profiles from the provider's backend API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The frontend signs the user in with the identity provider and receives
//     a short-lived session JWT.
//  2. Every API call carries it as "Authorization: Bearer <jwt>".
//  3. RequireAuth verifies the token (signature, expiry, issuer) and puts the
//     Claims in the request context.
//  4. The provisioning middleware turns Claims.Subject into a local user row.
//
// Two Verifier implementations exist: JWKSVerifier for real provider tokens
// (RS256, keys fetched from the provider), and HMACVerifier for local
// development and tests (HS256 with a shared secret).
package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is wrapped by every verification failure.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the subset of a verified session token the application reads.
type Claims struct {
	Subject   string // provider user id, e.g. "user_2abc"
	SessionID string
	OrgID     string // empty when no organisation is active
	OrgRole   string
}

// Verifier validates a raw bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// sessionClaims is the JWT payload shape shared by both verifiers. The
// provider puts the session and organisation in custom claims.
type sessionClaims struct {
	SessionID       string `json:"sid,omitempty"`
	OrgID           string `json:"org_id,omitempty"`
	OrgRole         string `json:"org_role,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
	jwt.RegisteredClaims
}

func (c *sessionClaims) toClaims() *Claims {
	return &Claims{
		Subject:   c.Subject,
		SessionID: c.SessionID,
		OrgID:     c.OrgID,
		OrgRole:   c.OrgRole,
	}
}
