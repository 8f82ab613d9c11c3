package intent

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL bounds how long an unconsumed intent survives.
const DefaultTTL = 15 * time.Minute

// ErrUnavailable wraps backend failures. Callers treat it as a store fault,
// never as "signup permitted".
var ErrUnavailable = errors.New("intent store unavailable")

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	SetIntent(ctx context.Context, sessionID string, permitted bool) error
	ConsumeIntent(ctx context.Context, sessionID string) (bool, error)
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
