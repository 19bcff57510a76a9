package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultDevIssuer is the issuer HMACVerifier stamps and expects when none is
// configured.
const DefaultDevIssuer = "sitebook-dev"

// HMACVerifier signs and verifies HS256 session tokens with a shared secret.
//
// It stands in for the identity provider during local development and in
// tests: Generate mints a token with the same claim layout the provider
// issues, and Verify checks it the way JWKSVerifier checks real ones.
type HMACVerifier struct {
	secret []byte
	issuer string
}

var _ Verifier = (*HMACVerifier)(nil)

// NewHMACVerifier creates an HMACVerifier. The secret should be at least 32
// bytes of random data outside tests. Example: AUTH_JWT_SECRET=$(openssl rand -hex 32)
func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if issuer == "" {
		issuer = DefaultDevIssuer
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// Generate creates and signs a session token for c, valid for ttl.
func (v *HMACVerifier) Generate(c Claims, ttl time.Duration) (string, error) {
	now := time.Now()

	sc := sessionClaims{
		SessionID: c.SessionID,
		OrgID:     c.OrgID,
		OrgRole:   c.OrgRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    v.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sc)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a JWT string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired, and has an expiry at all
//   - Issuer matches
//   - Algorithm is HS256 (prevents "alg: none" and algorithm confusion)
func (v *HMACVerifier) Verify(_ context.Context, tokenStr string) (*Claims, error) {
	var sc sessionClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sc,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	if sc.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return sc.toClaims(), nil
}
