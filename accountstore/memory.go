package accountstore

import (
	"context"
	"sync"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/google/uuid"
)

// Memory keeps accounts in process memory. It is meant for development and
// tests; everything is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	byEmail map[string]goAccount.Account
}

func NewMemory() *Memory {
	return &Memory{byEmail: make(map[string]goAccount.Account)}
}

func (m *Memory) GetAccountByEmail(ctx context.Context, email string) (goAccount.Account, error) {
	if err := ctx.Err(); err != nil {
		return goAccount.Account{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.byEmail[email]
	if !ok {
		return goAccount.Account{}, goAccount.ErrStoreAccountNotFound
	}
	return acc, nil
}

func (m *Memory) CreateAccount(ctx context.Context, in goAccount.CreateAccountInput) (goAccount.Account, error) {
	if err := ctx.Err(); err != nil {
		return goAccount.Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[in.Email]; exists {
		return goAccount.Account{}, goAccount.ErrStoreDuplicateEmail
	}
	acc := goAccount.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Origin:       originOrLocal(in.Origin),
		CreatedAt:    time.Now().UTC(),
	}
	m.byEmail[in.Email] = acc
	return acc, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byEmail)
}
