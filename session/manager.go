package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/jwt"
)

const (
	DefaultCookieName = "goaccount_session"
	DefaultTTL        = 24 * time.Hour
)

// Config controls the session cookie attributes.
type Config struct {
	CookieName string
	TTL        time.Duration
	Path       string
	Domain     string
	Secure     bool
}

// Manager issues and reads session cookies.
type Manager struct {
	tokens *jwt.Manager
	cfg    Config
}

func NewManager(tokens *jwt.Manager, cfg Config) (*Manager, error) {
	if tokens == nil {
		return nil, errors.New("session: nil token manager")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Manager{tokens: tokens, cfg: cfg}, nil
}

// Read returns the session id carried by r, if the cookie is present and valid.
func (m *Manager) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	claims, err := m.tokens.Parse(c.Value, jwt.AudienceSession)
	if err != nil {
		return "", false
	}
	if _, err := internal.ParseSessionID(claims.SID); err != nil {
		return "", false
	}
	return claims.SID, true
}

// Ensure returns the request's session id, minting a new one and setting the
// cookie on w when the request has none or carries an invalid one.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if sid, ok := m.Read(r); ok {
		return sid, nil
	}

	id, err := internal.NewSessionID()
	if err != nil {
		return "", err
	}
	sid := id.String()

	token, err := m.tokens.Sign(sid, jwt.AudienceSession, "", m.cfg.TTL)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     m.cfg.Path,
		Domain:   m.cfg.Domain,
		MaxAge:   int(m.cfg.TTL / time.Second),
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}
