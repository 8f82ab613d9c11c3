package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recordVersionV1 byte = 1

	flagDenied    byte = 0
	flagPermitted byte = 1
)

// RedisStore keeps intents under <prefix>:<sessionID> with a TTL.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store using prefix "aci" when prefix is empty and
// DefaultTTL when ttl is not positive.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "aci"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    normalizeTTL(ttl),
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// SetIntent overwrites any previous intent for sessionID and resets its TTL.
func (s *RedisStore) SetIntent(ctx context.Context, sessionID string, permitted bool) error {
	if sessionID == "" {
		return errors.New("intent: empty session id")
	}

	flag := flagDenied
	if permitted {
		flag = flagPermitted
	}

	if err := s.redis.Set(ctx, s.key(sessionID), []byte{recordVersionV1, flag}, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ConsumeIntent reads and deletes the intent in one GETDEL round trip.
// A missing, expired or unreadable record yields false.
func (s *RedisStore) ConsumeIntent(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	raw, err := s.redis.GetDel(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(raw) != 2 || raw[0] != recordVersionV1 {
		return false, nil
	}
	return raw[1] == flagPermitted, nil
}
