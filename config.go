package goAccount

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override fields; Build validates the result.
type Config struct {
	Password   PasswordConfig
	Policy     PolicyConfig
	Account    AccountConfig
	Throttle   ThrottleConfig
	Federation FederationConfig
	Session    SessionConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters for new hashes.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// PolicyConfig controls the secrets synthesized for federated accounts.
type PolicyConfig struct {
	GeneratedLength int
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

type AccountConfig struct {
	// PlaceholderName is stored when the provider profile has no name.
	PlaceholderName string
	// AllowPasswordLoginForFederated lets accounts created through federation
	// log in with their generated password. Nobody knows that password, so
	// this stays off unless an operator hands it out.
	AllowPasswordLoginForFederated bool
}

// ThrottleConfig bounds failed password logins per email, and optionally
// per client IP. It needs a Redis client; see Builder.WithRedis.
type ThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
	PerIP       bool
	Prefix      string
}

/*
====================================
FEDERATION CONFIG
====================================
*/

// FederationConfig describes the identity provider. Leaving ClientID or
// ClientSecret empty keeps the engine usable for local accounts; federated
// calls then fail with ErrConfiguration.
type FederationConfig struct {
	ClientID     string
	ClientSecret string
	BackendURL   string
	FrontendURL  string
	CallbackPath string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	Scopes      []string

	ExchangeTimeout time.Duration
	ProfileAttempts int
	RetryInterval   time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig covers the session cookie, the federation state token and the
// intent records keyed by session id.
type SessionConfig struct {
	Secret       string
	CookieName   string
	CookieTTL    time.Duration
	CookieSecure bool
	StateTTL     time.Duration
	IntentTTL    time.Duration
	IntentPrefix string
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration suitable for local development.
// Session.Secret is left empty and must be set before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: PolicyConfig{
			GeneratedLength: 12,
		},
		Account: AccountConfig{
			PlaceholderName:                "Unknown User",
			AllowPasswordLoginForFederated: false,
		},
		Throttle: ThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Cooldown:    15 * time.Minute,
			PerIP:       false,
			Prefix:      "acl",
		},
		Federation: FederationConfig{
			BackendURL:      "http://localhost:8000",
			FrontendURL:     "http://localhost:5173",
			CallbackPath:    "/api/auth/google/callback",
			ExchangeTimeout: 10 * time.Second,
			ProfileAttempts: 3,
			RetryInterval:   200 * time.Millisecond,
		},
		Session: SessionConfig{
			CookieName:   "goaccount_session",
			CookieTTL:    24 * time.Hour,
			StateTTL:     15 * time.Minute,
			IntentTTL:    15 * time.Minute,
			IntentPrefix: "aci",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Federation.Scopes != nil {
		out.Federation.Scopes = append([]string(nil), cfg.Federation.Scopes...)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// MinSessionSecretBytes is the shortest accepted Session.Secret.
const MinSessionSecretBytes = 16

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	if c.Policy.GeneratedLength < 8 {
		return errors.New("Policy GeneratedLength must be >= 8")
	}

	if strings.TrimSpace(c.Account.PlaceholderName) == "" {
		return errors.New("Account PlaceholderName must not be empty")
	}

	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts < 1 {
			return errors.New("Throttle MaxAttempts must be >= 1 when throttling is enabled")
		}
		if c.Throttle.Cooldown <= 0 {
			return errors.New("Throttle Cooldown must be > 0 when throttling is enabled")
		}
	}

	// Federation
	if !isAbsoluteURL(c.Federation.BackendURL) {
		return errors.New("Federation BackendURL must be an absolute URL")
	}
	if !isAbsoluteURL(c.Federation.FrontendURL) {
		return errors.New("Federation FrontendURL must be an absolute URL")
	}
	if !strings.HasPrefix(c.Federation.CallbackPath, "/") {
		return errors.New("Federation CallbackPath must start with /")
	}
	if c.Federation.ExchangeTimeout <= 0 {
		return errors.New("Federation ExchangeTimeout must be > 0")
	}
	if c.Federation.ProfileAttempts < 1 {
		return errors.New("Federation ProfileAttempts must be >= 1")
	}

	// Session
	if len(c.Session.Secret) < MinSessionSecretBytes {
		return errors.New("Session Secret must be at least 16 bytes")
	}
	if c.Session.CookieTTL <= 0 {
		return errors.New("Session CookieTTL must be > 0")
	}
	if c.Session.StateTTL <= 0 {
		return errors.New("Session StateTTL must be > 0")
	}
	if c.Session.IntentTTL <= 0 {
		return errors.New("Session IntentTTL must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
