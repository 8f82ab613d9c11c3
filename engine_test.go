package goAccount

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/federation"
	"github.com/MrEthical07/goAccount/intent"
	"github.com/MrEthical07/goAccount/password"
)

type mockAccountStore struct {
	mu        sync.Mutex
	byEmail   map[string]Account
	nextID    int
	getErr    error
	createErr error

	// beforeCreate runs after the engine's lookup and before the insert.
	beforeCreate func(in CreateAccountInput)

	getCalls    atomic.Int64
	createCalls atomic.Int64
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{byEmail: map[string]Account{}}
}

func (m *mockAccountStore) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	m.getCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return Account{}, m.getErr
	}
	acc, ok := m.byEmail[email]
	if !ok {
		return Account{}, ErrStoreAccountNotFound
	}
	return acc, nil
}

func (m *mockAccountStore) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	m.createCalls.Add(1)
	if m.beforeCreate != nil {
		m.beforeCreate(in)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return Account{}, m.createErr
	}
	if _, ok := m.byEmail[in.Email]; ok {
		return Account{}, ErrStoreDuplicateEmail
	}
	m.nextID++
	acc := Account{
		ID:           fmt.Sprintf("acc-%d", m.nextID),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Origin:       in.Origin,
		CreatedAt:    time.Now().UTC(),
	}
	m.byEmail[in.Email] = acc
	return acc, nil
}

func (m *mockAccountStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

func (m *mockAccountStore) get(email string) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byEmail[email]
	return acc, ok
}

// fakeFederator records intents the way federation.Client does and hands
// back a canned profile or error from CompleteLogin.
type fakeFederator struct {
	intents    IntentStore
	configured bool
	profile    Profile
	err        error
	beginErr   error
}

func (f *fakeFederator) BeginLogin(ctx context.Context, sessionID string, permitSignup bool) (string, error) {
	if !f.configured {
		return "", federation.ErrNotConfigured
	}
	if sessionID == "" {
		return "", federation.ErrEmptySession
	}
	if f.beginErr != nil {
		return "", f.beginErr
	}
	if err := f.intents.SetIntent(ctx, sessionID, permitSignup); err != nil {
		return "", err
	}
	return "https://provider.test/auth?state=" + sessionID, nil
}

func (f *fakeFederator) CompleteLogin(ctx context.Context, sessionID string, params CallbackParams) (Profile, error) {
	if !f.configured {
		return Profile{}, federation.ErrNotConfigured
	}
	if f.err != nil {
		return Profile{}, f.err
	}
	return f.profile, nil
}

func (f *fakeFederator) Status() FederationStatus {
	return FederationStatus{Configured: f.configured, ClientIDSet: f.configured, ClientSecretSet: f.configured}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testEnv struct {
	engine    *Engine
	store     *mockAccountStore
	intents   *intent.MemoryStore
	federator *fakeFederator
}

func newTestEngine(t *testing.T, mutate func(*Config)) testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store := newMockAccountStore()
	intents := intent.NewMemoryStore(cfg.Session.IntentTTL)
	fed := &fakeFederator{intents: intents, configured: true}

	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(store).
		WithIntentStore(intents).
		WithFederator(fed).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return testEnv{engine: engine, store: store, intents: intents, federator: fed}
}

const strongPassword = "Str0ng!Pass"

func TestSignupOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		req     SignupRequest
		wantErr error
	}{
		{"valid", SignupRequest{Name: "Ada", Email: "ada@example.com", Password: strongPassword}, nil},
		{"missing name", SignupRequest{Email: "ada@example.com", Password: strongPassword}, ErrInvalidRequest},
		{"blank name", SignupRequest{Name: "  ", Email: "ada@example.com", Password: strongPassword}, ErrInvalidRequest},
		{"missing email", SignupRequest{Name: "Ada", Password: strongPassword}, ErrInvalidRequest},
		{"malformed email", SignupRequest{Name: "Ada", Email: "not-an-email", Password: strongPassword}, ErrInvalidRequest},
		{"display form email", SignupRequest{Name: "Ada", Email: "Ada <ada@example.com>", Password: strongPassword}, ErrInvalidRequest},
		{"empty password", SignupRequest{Name: "Ada", Email: "ada@example.com"}, ErrWeakPassword},
		{"short password", SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "Ab1!"}, ErrWeakPassword},
		{"no uppercase", SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "str0ng!pass"}, ErrWeakPassword},
		{"no digit", SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "Strong!Pass"}, ErrWeakPassword},
		{"no special", SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "Str0ngPass"}, ErrWeakPassword},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEngine(t, nil)

			pub, err := env.engine.Signup(context.Background(), tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if env.store.count() != 0 {
					t.Fatalf("rejected signup must not create an account")
				}
				return
			}
			if err != nil {
				t.Fatalf("Signup: %v", err)
			}
			if pub.ID == "" || pub.Email != tc.req.Email || pub.Name != tc.req.Name {
				t.Fatalf("unexpected public account %+v", pub)
			}

			stored, ok := env.store.get(tc.req.Email)
			if !ok {
				t.Fatalf("account not stored")
			}
			if stored.PasswordHash == tc.req.Password {
				t.Fatalf("plaintext password reached the store")
			}
			if stored.Origin != OriginLocal {
				t.Fatalf("expected local origin, got %q", stored.Origin)
			}
		})
	}
}

func TestSignupWeakPasswordSkipsStore(t *testing.T) {
	env := newTestEngine(t, nil)

	_, err := env.engine.Signup(context.Background(), SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "weak"})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	var pe *password.PolicyError
	if !errors.As(err, &pe) || pe.Rule != password.RuleLength {
		t.Fatalf("expected length rule in chain, got %v", err)
	}
	if env.store.getCalls.Load() != 0 {
		t.Fatalf("policy failure must not touch the store")
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	req := SignupRequest{Name: "Ada", Email: "ada@example.com", Password: strongPassword}

	if _, err := env.engine.Signup(ctx, req); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := env.engine.Signup(ctx, req); !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
	if env.engine.MetricsSnapshot().Counters[MetricSignupDuplicate] != 1 {
		t.Fatalf("expected duplicate counter to be 1")
	}
}

func TestSignupDuplicateOnInsert(t *testing.T) {
	env := newTestEngine(t, nil)
	env.store.beforeCreate = func(in CreateAccountInput) {
		env.store.mu.Lock()
		env.store.byEmail[in.Email] = Account{ID: "other", Email: in.Email}
		env.store.mu.Unlock()
	}

	_, err := env.engine.Signup(context.Background(), SignupRequest{Name: "Ada", Email: "ada@example.com", Password: strongPassword})
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestSignupStoreFailure(t *testing.T) {
	env := newTestEngine(t, nil)
	env.store.getErr = errors.New("connection refused")

	_, err := env.engine.Signup(context.Background(), SignupRequest{Name: "Ada", Email: "ada@example.com", Password: strongPassword})
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if SafeMessage(err) != MessageStore {
		t.Fatalf("store error text leaked: %q", SafeMessage(err))
	}
}

func TestConcurrentSignupSameEmail(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		dups      atomic.Int64
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.engine.Signup(ctx, SignupRequest{Name: "Ada", Email: "race@example.com", Password: strongPassword})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrDuplicateAccount):
				dups.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes.Load() != 1 {
		t.Fatalf("expected exactly one success, got %d", successes.Load())
	}
	if dups.Load() != workers-1 {
		t.Fatalf("expected %d duplicates, got %d", workers-1, dups.Load())
	}
	if env.store.count() != 1 {
		t.Fatalf("expected one stored account, got %d", env.store.count())
	}
}

func TestLoginOutcomes(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := env.engine.Signup(ctx, SignupRequest{Name: "Ada", Email: "ada@example.com", Password: strongPassword}); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	tests := []struct {
		name        string
		email       string
		password    string
		wantOutcome LoginOutcome
		wantErr     error
	}{
		{"success", "ada@example.com", strongPassword, LoginSucceeded, nil},
		{"wrong password", "ada@example.com", "Wr0ng!Pass", LoginInvalidCredential, ErrInvalidCredential},
		{"empty password", "ada@example.com", "", LoginInvalidCredential, ErrInvalidCredential},
		{"unknown email", "nobody@example.com", strongPassword, LoginAccountNotFound, ErrAccountNotFound},
		{"case differs", "ADA@example.com", strongPassword, LoginAccountNotFound, ErrAccountNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := env.engine.Login(ctx, tc.email, tc.password)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("Login: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if res.Outcome != tc.wantOutcome {
				t.Fatalf("expected outcome %s, got %s", tc.wantOutcome, res.Outcome)
			}
			if tc.wantErr == nil && res.Account.Email != tc.email {
				t.Fatalf("unexpected account %+v", res.Account)
			}
			if tc.wantErr != nil && res.Account != (PublicAccount{}) {
				t.Fatalf("failed login must not return an account")
			}
		})
	}
}

func TestLoginUnknownEmailReportedBeforeVerify(t *testing.T) {
	env := newTestEngine(t, nil)

	res, err := env.engine.Login(context.Background(), "ghost@example.com", "anything")
	if !errors.Is(err, ErrAccountNotFound) || res.Outcome != LoginAccountNotFound {
		t.Fatalf("expected account not found, got %v %s", err, res.Outcome)
	}
	if SafeMessage(err) != MessageAccountNotFound {
		t.Fatalf("unexpected message %q", SafeMessage(err))
	}
}

func TestLoginStoreFailureIsUnavailable(t *testing.T) {
	env := newTestEngine(t, nil)
	env.store.getErr = errors.New("timeout")

	res, err := env.engine.Login(context.Background(), "ada@example.com", strongPassword)
	if !errors.Is(err, ErrStore) || res.Outcome != LoginUnavailable {
		t.Fatalf("expected unavailable, got %v %s", err, res.Outcome)
	}
}

func TestLoginFederatedAccountPasswordGate(t *testing.T) {
	for _, allow := range []bool{false, true} {
		t.Run(fmt.Sprintf("allow=%v", allow), func(t *testing.T) {
			env := newTestEngine(t, func(c *Config) {
				c.Account.AllowPasswordLoginForFederated = allow
			})
			hash, err := env.engine.passwordHash.Hash(strongPassword)
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			env.store.byEmail["fed@example.com"] = Account{
				ID: "fed-1", Name: "Fed", Email: "fed@example.com", PasswordHash: hash, Origin: OriginFederated,
			}

			res, err := env.engine.Login(context.Background(), "fed@example.com", strongPassword)
			if allow {
				if err != nil || res.Outcome != LoginSucceeded {
					t.Fatalf("expected success, got %v %s", err, res.Outcome)
				}
				return
			}
			if !errors.Is(err, ErrInvalidCredential) {
				t.Fatalf("expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

func TestLoginMalformedStoredHash(t *testing.T) {
	env := newTestEngine(t, nil)
	env.store.byEmail["bad@example.com"] = Account{ID: "x", Email: "bad@example.com", PasswordHash: "not-a-phc", Origin: OriginLocal}

	_, err := env.engine.Login(context.Background(), "bad@example.com", strongPassword)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestAuditEventsCarryContext(t *testing.T) {
	sink := NewChannelSink(16)
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false

	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(newMockAccountStore()).
		WithIntentStore(intent.NewMemoryStore(0)).
		WithFederator(&fakeFederator{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	ctx := WithUserAgent(WithClientIP(context.Background(), "203.0.113.7"), "test-agent")
	if _, err := engine.Login(ctx, "ghost@example.com", strongPassword); err == nil {
		t.Fatalf("expected login failure")
	}

	select {
	case ev := <-sink.Events():
		if ev.EventType != auditEventLoginFailure || ev.Success {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.IP != "203.0.113.7" || ev.UserAgent != "test-agent" {
			t.Fatalf("context not propagated: %+v", ev)
		}
		if ev.Error != string(auditErrAccountNotFound) {
			t.Fatalf("unexpected error code %q", ev.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("audit event not delivered")
	}
}

func TestBuildRequirements(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatalf("expected error without account store")
	}

	if _, err := New().WithConfig(testConfig()).WithAccountStore(newMockAccountStore()).Build(); err == nil {
		t.Fatalf("expected error without intent store or redis")
	}

	cfg := testConfig()
	cfg.Session.Secret = "short"
	if _, err := New().WithConfig(cfg).WithAccountStore(newMockAccountStore()).WithIntentStore(intent.NewMemoryStore(0)).Build(); err == nil {
		t.Fatalf("expected config validation error")
	}

	b := New().WithConfig(testConfig()).WithAccountStore(newMockAccountStore()).WithIntentStore(intent.NewMemoryStore(0))
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatalf("expected builder reuse to fail")
	}
	if engine.FederationStatus().Configured {
		t.Fatalf("default federator without credentials must report unconfigured")
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	if _, err := e.Signup(context.Background(), SignupRequest{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Login(context.Background(), "a@b.c", "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	e.Close()
}
