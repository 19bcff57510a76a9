package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	defaultJWKSCacheTTL           = time.Hour
	defaultJWKSMinRefreshInterval = 30 * time.Second

	maxJWKSBodyBytes = 1 << 20
)

// JWKSConfig configures a JWKSVerifier.
type JWKSConfig struct {
	// URL of the provider's JSON Web Key Set, e.g.
	// https://<instance>.clerk.accounts.dev/.well-known/jwks.json
	URL string
	// Issuer every token must carry in "iss". Empty disables the check.
	Issuer string
	// AuthorizedParties lists accepted "azp" values (frontend origins).
	// Empty accepts any.
	AuthorizedParties []string
	// Leeway tolerates clock skew between us and the provider.
	Leeway   time.Duration
	CacheTTL time.Duration
	// MinRefreshInterval is the shortest gap between two JWKS fetches.
	// Tokens with unknown kids inside that window fail without a fetch.
	MinRefreshInterval time.Duration
	HTTPClient         *http.Client
	Logger             *slog.Logger
}

// JWKSVerifier verifies RS256 session tokens issued by the identity provider.
//
// KEY CACHING:
// Public keys are fetched from the JWKS endpoint and cached for CacheTTL. A
// token whose "kid" is not in the cache triggers one refetch, which is how
// provider key rotation is picked up without waiting for the TTL.
//
// The kid is read before the signature is checked, so anyone can send
// unknown kids. Concurrent refetches share one request and at most one
// fetch starts per MinRefreshInterval.
type JWKSVerifier struct {
	cfg   JWKSConfig
	group singleflight.Group
	now   func() time.Time

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey // kid → key
	fetchedAt   time.Time
	lastAttempt time.Time
}

var _ Verifier = (*JWKSVerifier)(nil)

func NewJWKSVerifier(cfg JWKSConfig) (*JWKSVerifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("auth: JWKS URL is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultJWKSCacheTTL
	}
	if cfg.MinRefreshInterval <= 0 {
		cfg.MinRefreshInterval = defaultJWKSMinRefreshInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &JWKSVerifier{
		cfg:  cfg,
		now:  time.Now,
		keys: make(map[string]*rsa.PublicKey),
	}, nil
}

// Verify checks signature, expiry, issuer and authorized party.
func (v *JWKSVerifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.Leeway),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	var sc sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &sc, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		return v.key(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || sc.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	// A token without azp is accepted, as the provider's own SDKs do.
	if len(v.cfg.AuthorizedParties) > 0 && sc.AuthorizedParty != "" &&
		!slices.Contains(v.cfg.AuthorizedParties, sc.AuthorizedParty) {
		return nil, fmt.Errorf("%w: unauthorized party %q", ErrInvalidToken, sc.AuthorizedParty)
	}

	return sc.toClaims(), nil
}

// key returns the public key for kid, refreshing the cache when it is stale
// or does not know kid.
func (v *JWKSVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := v.now().Sub(v.fetchedAt) < v.cfg.CacheTTL
	v.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	if err := v.maybeRefresh(ctx); err != nil {
		if ok {
			v.cfg.Logger.Warn("JWKS refresh failed, using cached key",
				slog.String("kid", kid),
				slog.String("error", err.Error()),
			)
			return key, nil
		}
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("kid not found in JWKS: %s", kid)
}

// maybeRefresh refetches the key set unless a fetch started less than
// MinRefreshInterval ago. Concurrent callers share one fetch.
func (v *JWKSVerifier) maybeRefresh(ctx context.Context) error {
	_, err, _ := v.group.Do("jwks", func() (any, error) {
		v.mu.Lock()
		if !v.lastAttempt.IsZero() && v.now().Sub(v.lastAttempt) < v.cfg.MinRefreshInterval {
			v.mu.Unlock()
			return nil, nil
		}
		v.lastAttempt = v.now()
		v.mu.Unlock()

		// The fetch is shared, so one caller giving up must not fail the rest.
		return nil, v.refresh(context.WithoutCancel(ctx))
	})
	return err
}

// refresh refetches the key set and replaces the cache.
func (v *JWKSVerifier) refresh(ctx context.Context) error {
	v.cfg.Logger.Debug("fetching JWKS", slog.String("url", v.cfg.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("creating JWKS request: %w", err)
	}

	resp, err := v.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS request failed: %s", resp.Status)
	}

	var set struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBodyBytes)).Decode(&set); err != nil {
		return fmt.Errorf("decoding JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		key, err := jwk.rsaPublicKey()
		if err != nil {
			v.cfg.Logger.Warn("skipping unusable JWK",
				slog.String("kid", jwk.Kid),
				slog.String("error", err.Error()),
			)
			continue
		}
		keys[jwk.Kid] = key
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = v.now()
	v.mu.Unlock()

	v.cfg.Logger.Info("cached JWKS", slog.Int("keys", len(keys)))
	return nil
}

// jsonWebKey is one RSA entry of a JWKS document (RFC 7517).
type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k jsonWebKey) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.Kid == "" {
		return nil, errors.New("missing kid")
	}
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type: %q", k.Kty)
	}
	if k.Use != "" && k.Use != "sig" {
		return nil, fmt.Errorf("unsupported key use: %q", k.Use)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() < 3 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
