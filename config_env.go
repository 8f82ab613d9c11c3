package goAccount

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// accountEnv holds the raw environment values LoadConfigFromEnv reads.
type accountEnv struct {
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleScopes       []string      `env:"GOOGLE_SCOPES"            envSeparator:","`
	BackendURL         string        `env:"BACKEND_URL"              envDefault:"http://localhost:8000"`
	FrontendURL        string        `env:"FRONTEND_URL"             envDefault:"http://localhost:5173"`
	SessionSecret      string        `env:"SESSION_SECRET_KEY"`
	SessionCookieName  string        `env:"SESSION_COOKIE_NAME"      envDefault:"goaccount_session"`
	SessionCookieTTL   time.Duration `env:"SESSION_COOKIE_TTL"       envDefault:"24h"`
	SessionSecure      bool          `env:"SESSION_COOKIE_SECURE"    envDefault:"false"`
	IntentTTL          time.Duration `env:"SIGNUP_INTENT_TTL"        envDefault:"15m"`
	ExchangeTimeout    time.Duration `env:"FEDERATION_TIMEOUT"       envDefault:"10s"`
	ProfileAttempts    int           `env:"FEDERATION_PROFILE_TRIES" envDefault:"3"`
	AllowFederatedPass bool          `env:"ALLOW_PASSWORD_LOGIN_FOR_FEDERATED" envDefault:"false"`
	ThrottleEnabled    bool          `env:"LOGIN_THROTTLE_ENABLED"   envDefault:"true"`
	ThrottleAttempts   int           `env:"LOGIN_THROTTLE_ATTEMPTS"  envDefault:"5"`
	ThrottleCooldown   time.Duration `env:"LOGIN_THROTTLE_COOLDOWN"  envDefault:"15m"`
	ThrottlePerIP      bool          `env:"LOGIN_THROTTLE_PER_IP"    envDefault:"false"`
	AuditEnabled       bool          `env:"AUDIT_ENABLED"            envDefault:"true"`
	MetricsEnabled     bool          `env:"METRICS_ENABLED"          envDefault:"true"`
}

// LoadConfigFromEnv starts from DefaultConfig and applies environment
// overrides. The result still has to pass Validate.
func LoadConfigFromEnv() (Config, error) {
	var raw accountEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	cfg.Federation.ClientID = strings.TrimSpace(raw.GoogleClientID)
	cfg.Federation.ClientSecret = strings.TrimSpace(raw.GoogleClientSecret)
	cfg.Federation.Scopes = trimCSV(raw.GoogleScopes)
	cfg.Federation.BackendURL = strings.TrimRight(raw.BackendURL, "/")
	cfg.Federation.FrontendURL = strings.TrimRight(raw.FrontendURL, "/")
	cfg.Federation.ExchangeTimeout = raw.ExchangeTimeout
	cfg.Federation.ProfileAttempts = raw.ProfileAttempts

	cfg.Session.Secret = raw.SessionSecret
	cfg.Session.CookieName = raw.SessionCookieName
	cfg.Session.CookieTTL = raw.SessionCookieTTL
	cfg.Session.CookieSecure = raw.SessionSecure
	cfg.Session.IntentTTL = raw.IntentTTL

	cfg.Account.AllowPasswordLoginForFederated = raw.AllowFederatedPass
	cfg.Throttle.Enabled = raw.ThrottleEnabled
	cfg.Throttle.MaxAttempts = raw.ThrottleAttempts
	cfg.Throttle.Cooldown = raw.ThrottleCooldown
	cfg.Throttle.PerIP = raw.ThrottlePerIP
	cfg.Audit.Enabled = raw.AuditEnabled
	cfg.Metrics.Enabled = raw.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = raw.MetricsEnabled

	return cfg, nil
}

func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
