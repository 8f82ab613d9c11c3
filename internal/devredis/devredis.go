// Package devredis opens the Redis client the commands share, falling back
// to an in-process miniredis when no address is configured.
package devredis

import (
	"context"
	"fmt"
	"strings"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Conn is an open client and the function that releases it.
type Conn struct {
	Client redis.UniversalClient
	// Embedded reports that Client talks to an in-process miniredis.
	Embedded bool
	Addr     string
	close    func()
}

func (c *Conn) Close() {
	if c != nil && c.close != nil {
		c.close()
	}
}

// Open connects to addr, which may be a redis:// URL or host:port. An empty
// addr starts miniredis. The connection is pinged before returning.
func Open(ctx context.Context, addr string) (*Conn, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		return &Conn{
			Client:   client,
			Embedded: true,
			Addr:     mr.Addr(),
			close: func() {
				_ = client.Close()
				mr.Close()
			},
		}, nil
	}

	opts := &redis.UniversalOptions{Addrs: []string{addr}}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = &redis.UniversalOptions{
			Addrs:     []string{parsed.Addr},
			Username:  parsed.Username,
			Password:  parsed.Password,
			DB:        parsed.DB,
			TLSConfig: parsed.TLSConfig,
		}
	}

	client := redis.NewUniversalClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Conn{
		Client: client,
		Addr:   opts.Addrs[0],
		close:  func() { _ = client.Close() },
	}, nil
}
