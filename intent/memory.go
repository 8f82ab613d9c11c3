package intent

import (
	"context"
	"errors"
	"sync"
	"time"
)

// sweepEvery is the number of SetIntent calls between expiry sweeps.
const sweepEvery = 64

type memoryRecord struct {
	permitted bool
	expiresAt time.Time
}

// MemoryStore is a process-local Store for tests and single-instance setups.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	ttl     time.Duration
	now     func() time.Time
	writes  int
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryRecord),
		ttl:     normalizeTTL(ttl),
		now:     time.Now,
	}
}

func (s *MemoryStore) SetIntent(ctx context.Context, sessionID string, permitted bool) error {
	if sessionID == "" {
		return errors.New("intent: empty session id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if s.writes%sweepEvery == 0 {
		s.sweepLocked()
	}
	s.records[sessionID] = memoryRecord{
		permitted: permitted,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) ConsumeIntent(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return false, nil
	}
	delete(s.records, sessionID)

	if !s.now().Before(rec.expiresAt) {
		return false, nil
	}
	return rec.permitted, nil
}

// Len reports the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.records)
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, rec := range s.records {
		if !now.Before(rec.expiresAt) {
			delete(s.records, id)
		}
	}
}
