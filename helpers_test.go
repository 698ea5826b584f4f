package estateauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/peanechestate/estateauth/session"
)

const seededPassword = "password123"

var testEpoch = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Verifier.Latency = 0
	return cfg
}

func fixedClock() time.Time { return testEpoch }

type engineOption func(*Builder)

func newTestEngine(t *testing.T, store session.Store, opts ...engineOption) *Engine {
	t.Helper()

	b := New().WithConfig(testConfig()).WithStore(store).WithClock(fixedClock)
	for _, opt := range opts {
		opt(b)
	}

	e, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func newRecoveredEngine(t *testing.T, store session.Store, opts ...engineOption) *Engine {
	t.Helper()

	e := newTestEngine(t, store, opts...)
	e.Recover(context.Background())
	return e
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// faultyStore wraps a MemoryStore and fails the operations whose error is set.
type faultyStore struct {
	*session.MemoryStore
	loadErr   error
	saveErr   error
	deleteErr error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: session.NewMemoryStore()}
}

func (s *faultyStore) Load(ctx context.Context) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load(ctx)
}

func (s *faultyStore) Save(ctx context.Context, data []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, data)
}

func (s *faultyStore) Delete(ctx context.Context) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx)
}

var errStoreDown = errors.New("store down")

// heldVerifier parks every call until release is closed.
type heldVerifier struct {
	next    CredentialVerifier
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newHeldVerifier(next CredentialVerifier) *heldVerifier {
	return &heldVerifier{
		next:    next,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (v *heldVerifier) wait(ctx context.Context) error {
	v.once.Do(func() { close(v.entered) })
	select {
	case <-v.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *heldVerifier) VerifyLogin(ctx context.Context, creds LoginCredentials) (User, error) {
	if err := v.wait(ctx); err != nil {
		return User{}, err
	}
	return v.next.VerifyLogin(ctx, creds)
}

func (v *heldVerifier) VerifyRegistration(ctx context.Context, data RegisterData) (User, error) {
	if err := v.wait(ctx); err != nil {
		return User{}, err
	}
	return v.next.VerifyRegistration(ctx, data)
}

type stateRecorder struct {
	mu     sync.Mutex
	states []AuthState
}

func (r *stateRecorder) observe(s AuthState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) snapshot() []AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuthState(nil), r.states...)
}

func assertAnonymous(t *testing.T, s AuthState) {
	t.Helper()
	if s.User != nil || s.IsAuthenticated || s.IsLoading {
		t.Fatalf("expected {nil,false,false}, got %+v", s)
	}
}

func assertSignedIn(t *testing.T, s AuthState, email string) {
	t.Helper()
	if s.User == nil || !s.IsAuthenticated || s.IsLoading {
		t.Fatalf("expected settled authenticated state, got %+v", s)
	}
	if s.User.Email != email {
		t.Fatalf("expected user %s, got %s", email, s.User.Email)
	}
}

func sameUser(a, b User) bool {
	return a.ID == b.ID &&
		a.Email == b.Email &&
		a.Name == b.Name &&
		a.Role == b.Role &&
		a.Avatar == b.Avatar &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
