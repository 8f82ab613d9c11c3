package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// serverConfig holds process settings; engine settings come from
// goAccount.LoadConfigFromEnv.
type serverConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8000"`
	DatabaseDriver  string        `env:"DATABASE_DRIVER"  envDefault:"sqlite"`
	DatabaseURL     string        `env:"DATABASE_URL"     envDefault:"data/accounts.db"`
	RedisURL        string        `env:"REDIS_URL"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ExtraOrigins    []string      `env:"CORS_ORIGINS"     envSeparator:","`
}

func loadServerConfig() (serverConfig, error) {
	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}
