package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the shortest accepted HMAC key.
const MinKeyBytes = 16

// ErrInvalidToken is matched by every Parse failure.
var ErrInvalidToken = errors.New("invalid token")

// Config configures a Manager.
//
// VerifyKeys allows rotation: tokens whose kid header names an entry verify
// against that key, while new tokens are always signed with Key under KeyID.
type Config struct {
	Key        []byte
	Issuer     string
	Leeway     time.Duration
	KeyID      string
	VerifyKeys map[string][]byte
}

// Manager issues and verifies audience-bound session tokens.
type Manager struct {
	config Config
}

// Claims is the payload of every token the Manager issues.
type Claims struct {
	SID   string `json:"sid"`
	Nonce string `json:"n,omitempty"`
	jwt.RegisteredClaims
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Key) < MinKeyBytes {
		return nil, fmt.Errorf("hs256 key must be at least %d bytes", MinKeyBytes)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if len(key) < MinKeyBytes {
			return nil, fmt.Errorf("verify key for kid %q is too short", kid)
		}
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	return &Manager{config: cfg}, nil
}

// Sign issues a token binding sid to audience that expires after ttl.
// nonce is optional and only makes otherwise identical tokens distinct.
func (m *Manager) Sign(sid, audience, nonce string, ttl time.Duration) (string, error) {
	if sid == "" {
		return "", errors.New("empty session id")
	}
	if audience == "" {
		return "", errors.New("empty audience")
	}
	if ttl <= 0 {
		return "", errors.New("invalid TTL")
	}

	now := time.Now()
	claims := Claims{
		SID:   sid,
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.config.Key)
}

// Parse verifies tokenStr and returns its claims. The token must be HS256,
// unexpired, issued by the configured issuer and addressed to audience.
func (m *Manager) Parse(tokenStr, audience string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(audience),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	kid, _ := t.Header["kid"].(string)
	if len(m.config.VerifyKeys) > 0 {
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := m.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return key, nil
	}

	if m.config.KeyID != "" && kid != m.config.KeyID {
		return nil, errors.New("unknown kid")
	}
	return m.config.Key, nil
}

// Audiences used by goAccount.
const (
	AudienceSession = "goaccount-session"
	AudienceState   = "goaccount-federation-state"
)
