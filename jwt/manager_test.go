package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testKey = []byte("test-secret-test-secret-test-secret")

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Key == nil {
		cfg.Key = testKey
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestSignAndParse(t *testing.T) {
	m := newTestManager(t, Config{Issuer: "accountd"})

	tok, err := m.Sign("sid-1", AudienceSession, "", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := m.Parse(tok, AudienceSession)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.SID != "sid-1" {
		t.Fatalf("SID = %q, want sid-1", claims.SID)
	}
}

func TestParseRejectsWrongAudience(t *testing.T) {
	m := newTestManager(t, Config{})

	tok, err := m.Sign("sid-1", AudienceSession, "", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := m.Parse(tok, AudienceState); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := newTestManager(t, Config{})

	claims := Claims{
		SID: "sid",
		RegisteredClaims: gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Audience:  gjwt.ClaimStrings{AudienceSession},
		},
	}
	tok, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(tok, AudienceSession); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	m := newTestManager(t, Config{})

	claims := Claims{
		SID:              "sid",
		RegisteredClaims: gjwt.RegisteredClaims{Audience: gjwt.ClaimStrings{AudienceSession}},
	}
	tok, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(tok, AudienceSession); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}

func TestParseRejectsOtherKeyAndAlgorithm(t *testing.T) {
	m := newTestManager(t, Config{})
	other := newTestManager(t, Config{Key: []byte("another-secret-another-secret")})

	tok, err := other.Sign("sid", AudienceSession, "", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := m.Parse(tok, AudienceSession); err == nil {
		t.Fatal("expected foreign key to be rejected")
	}

	claims := Claims{
		SID: "sid",
		RegisteredClaims: gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
			Audience:  gjwt.ClaimStrings{AudienceSession},
		},
	}
	none, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Parse(none, AudienceSession); err == nil {
		t.Fatal("expected alg=none to be rejected")
	}
}

func TestKeyRotation(t *testing.T) {
	oldKey := []byte("old-secret-old-secret-old-secret")
	old := newTestManager(t, Config{Key: oldKey, KeyID: "k1"})
	tok, err := old.Sign("sid", AudienceState, "n1", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	rotated := newTestManager(t, Config{
		KeyID:      "k2",
		VerifyKeys: map[string][]byte{"k1": oldKey, "k2": testKey},
	})
	claims, err := rotated.Parse(tok, AudienceState)
	if err != nil {
		t.Fatalf("Parse with rotated keys: %v", err)
	}
	if claims.Nonce != "n1" {
		t.Fatalf("Nonce = %q, want n1", claims.Nonce)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []Config{
		{Key: []byte("short")},
		{Key: testKey, Leeway: -time.Second},
		{Key: testKey, KeyID: "k3", VerifyKeys: map[string][]byte{"k1": testKey}},
		{Key: testKey, VerifyKeys: map[string][]byte{" ": testKey}},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
