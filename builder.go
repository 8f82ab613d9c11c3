package goAccount

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goAccount/federation"
	"github.com/MrEthical07/goAccount/intent"
	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/rate"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accounts   AccountStore
	intents    IntentStore
	federator  Federator
	httpClient *http.Client
	auditSink  AuditSink

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithRedis backs the intent store and the login throttle with Redis.
// WithIntentStore takes precedence for intents when both are set.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithIntentStore(store IntentStore) *Builder {
	b.intents = store
	return b
}

// WithFederator replaces the provider client Build would otherwise create
// from Config.Federation.
func (b *Builder) WithFederator(f Federator) *Builder {
	b.federator = f
	return b
}

// WithHTTPClient sets the client used for provider calls.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.accounts == nil {
		return nil, errors.New("account store required")
	}

	// -------- INTENT STORE --------
	intents := b.intents
	if intents == nil {
		if b.redis == nil {
			return nil, errors.New("intent store or redis client required")
		}
		intents = intent.NewRedisStore(b.redis, cfg.Session.IntentPrefix, cfg.Session.IntentTTL)
	}

	// -------- LOGIN THROTTLE --------
	var throttle *rate.Limiter
	if cfg.Throttle.Enabled {
		if b.redis == nil {
			return nil, errors.New("login throttle requires a redis client")
		}
		throttle = rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.Throttle.MaxAttempts,
			Cooldown:    cfg.Throttle.Cooldown,
			PerIP:       cfg.Throttle.PerIP,
			Prefix:      cfg.Throttle.Prefix,
		})
	}

	// -------- FEDERATION --------
	federator := b.federator
	if federator == nil {
		states, err := jwt.NewManager(jwt.Config{
			Key:    []byte(cfg.Session.Secret),
			Issuer: "goaccount",
		})
		if err != nil {
			return nil, err
		}
		client, err := federation.NewClient(federationClientConfig(cfg), intents, states, b.httpClient)
		if err != nil {
			return nil, err
		}
		federator = client
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		accounts:     b.accounts,
		intents:      intents,
		federator:    federator,
		passwordHash: ph,
		throttle:     throttle,
		metrics:      NewMetrics(cfg.Metrics),
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}

func federationClientConfig(cfg Config) federation.Config {
	f := cfg.Federation
	return federation.Config{
		ClientID:        f.ClientID,
		ClientSecret:    f.ClientSecret,
		BaseURL:         f.BackendURL,
		CallbackPath:    f.CallbackPath,
		AuthURL:         f.AuthURL,
		TokenURL:        f.TokenURL,
		UserInfoURL:     f.UserInfoURL,
		Scopes:          f.Scopes,
		StateTTL:        cfg.Session.StateTTL,
		ExchangeTimeout: f.ExchangeTimeout,
		ProfileAttempts: f.ProfileAttempts,
		RetryInterval:   f.RetryInterval,
	}
}
