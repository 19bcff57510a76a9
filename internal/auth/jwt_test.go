package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// newTestVerifier uses a fixed, known secret so tests are deterministic.
func newTestVerifier(t *testing.T) *HMACVerifier {
	t.Helper()
	v, err := NewHMACVerifier("test-secret-at-least-16-chars!!", "")
	if err != nil {
		t.Fatalf("NewHMACVerifier: %v", err)
	}
	return v
}

func TestNewHMACVerifier_ShortSecret(t *testing.T) {
	if _, err := NewHMACVerifier("short", ""); err == nil {
		t.Fatal("NewHMACVerifier() should reject secrets shorter than 16 chars")
	}
}

func TestNewHMACVerifier_DefaultIssuer(t *testing.T) {
	v, err := NewHMACVerifier("this-is-16-chars", "")
	if err != nil {
		t.Fatalf("NewHMACVerifier() unexpected error: %v", err)
	}
	if v.issuer != DefaultDevIssuer {
		t.Errorf("issuer = %q, want %q", v.issuer, DefaultDevIssuer)
	}
}

func TestGenerate_HasThreeParts(t *testing.T) {
	v := newTestVerifier(t)

	token, err := v.Generate(Claims{Subject: "user_123"}, time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("token has %d parts, want 3 (header.payload.signature)", len(parts))
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	v := newTestVerifier(t)

	token, err := v.Generate(Claims{
		Subject:   "user_123",
		SessionID: "sess_1",
		OrgID:     "org_9",
		OrgRole:   "admin",
	}, time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "user_123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user_123")
	}
	if claims.SessionID != "sess_1" || claims.OrgID != "org_9" || claims.OrgRole != "admin" {
		t.Errorf("custom claims not preserved: %+v", claims)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := newTestVerifier(t)

	token, err := v.Generate(Claims{Subject: "user_123"}, -time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = v.Verify(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("Verify() error = %q, want it to mention expiry", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	v := newTestVerifier(t)
	token, _ := v.Generate(Claims{Subject: "user_123"}, time.Minute)

	tampered := token[:len(token)-4] + "XXXX"
	if _, err := v.Verify(context.Background(), tampered); err == nil {
		t.Error("Verify() should reject a tampered signature")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v := newTestVerifier(t)
	other, _ := NewHMACVerifier("a-completely-different-secret", "")
	token, _ := other.Generate(Claims{Subject: "user_123"}, time.Minute)

	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Error("Verify() should reject a token signed with another secret")
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	v := newTestVerifier(t)
	other, _ := NewHMACVerifier("test-secret-at-least-16-chars!!", "someone-else")
	token, _ := other.Generate(Claims{Subject: "user_123"}, time.Minute)

	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Error("Verify() should reject a token from another issuer")
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	v := newTestVerifier(t)
	token, _ := v.Generate(Claims{}, time.Minute)

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken for empty subject", err)
	}
}

func TestVerify_NoneAlgorithmRejected(t *testing.T) {
	v := newTestVerifier(t)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user_123",
		Issuer:    DefaultDevIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Error("Verify() must reject alg=none tokens")
	}
}

func TestVerify_GarbageString(t *testing.T) {
	v := newTestVerifier(t)

	for _, input := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := v.Verify(context.Background(), input); err == nil {
			t.Errorf("Verify(%q) should fail", input)
		}
	}
}
