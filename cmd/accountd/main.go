// Command accountd serves local and Google sign-in over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/accountstore"
	"github.com/MrEthical07/goAccount/httpapi"
	"github.com/MrEthical07/goAccount/internal/devredis"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/session"
	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("accountd stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	srvCfg, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("parse server config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(srvCfg.LogLevel)}))
	slog.SetDefault(logger)

	cfg, err := goAccount.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("parse engine config: %w", err)
	}

	accounts, closeStore, err := openAccountStore(ctx, srvCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, err := devredis.Open(ctx, srvCfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if rdb.Embedded {
		logger.Warn("REDIS_URL not set, signup intents live in an embedded miniredis", slog.String("addr", rdb.Addr))
	}

	engine, err := goAccount.New().
		WithConfig(cfg).
		WithAccountStore(accounts).
		WithRedis(rdb.Client).
		WithAuditSink(goAccount.NewSlogSink(logger.With(slog.String("component", "audit")))).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	status := engine.FederationStatus()
	logger.Info("federation status",
		slog.Bool("configured", status.Configured),
		slog.Bool("client_id_set", status.ClientIDSet),
		slog.Bool("client_secret_set", status.ClientSecretSet),
	)

	tokens, err := jwt.NewManager(jwt.Config{Key: []byte(cfg.Session.Secret), Issuer: "goaccount"})
	if err != nil {
		return fmt.Errorf("session tokens: %w", err)
	}
	sessions, err := session.NewManager(tokens, session.Config{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.CookieTTL,
		Secure:     cfg.Session.CookieSecure,
	})
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(&httpapi.Handler{
		Accounts:    engine,
		Sessions:    sessions,
		FrontendURL: cfg.Federation.FrontendURL,
		Logger:      logger,
	}, httpapi.RouterConfig{
		AllowedOrigins: append([]string{cfg.Federation.FrontendURL}, srvCfg.ExtraOrigins...),
		CallbackPath:   cfg.Federation.CallbackPath,
		Metrics:        prometheus.NewPrometheusExporter(engine).Handler(),
		Logger:         logger,
	})

	srv := &http.Server{Addr: srvCfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srvCfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openAccountStore(ctx context.Context, cfg serverConfig) (goAccount.AccountStore, func(), error) {
	switch strings.ToLower(cfg.DatabaseDriver) {
	case "postgres", "pgx":
		store, db, err := accountstore.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.DatabaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		store, db, err := accountstore.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	case "memory":
		return accountstore.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}
