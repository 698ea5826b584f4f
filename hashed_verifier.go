package estateauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peanechestate/estateauth/password"
)

// SecretStore keeps one password hash per user ID.
type SecretStore interface {
	Get(ctx context.Context, userID string) (string, error)
	Put(ctx context.Context, userID, hash string) error
	Delete(ctx context.Context, userID string) error
}

// MemorySecretStore is an in-process [SecretStore].
type MemorySecretStore struct {
	mu     sync.RWMutex
	hashes map[string]string
}

func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{hashes: make(map[string]string)}
}

// Get returns the hash for userID or [ErrNotFound].
func (s *MemorySecretStore) Get(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.hashes[userID]
	if !ok {
		return "", ErrNotFound
	}
	return h, nil
}

func (s *MemorySecretStore) Put(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hashes[userID] = hash
	return nil
}

func (s *MemorySecretStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.hashes, userID)
	return nil
}

// HashedVerifier checks passwords against argon2id hashes held in a
// [SecretStore]. Hashes produced under weaker parameters are replaced on
// the next successful login.
type HashedVerifier struct {
	directory     Directory
	secrets       SecretStore
	hasher        *password.Argon2
	latency       time.Duration
	avatarBaseURL string
	now           func() time.Time
	newID         func() string
}

func NewHashedVerifier(dir Directory, secrets SecretStore, cfg VerifierConfig) (*HashedVerifier, error) {
	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	return &HashedVerifier{
		directory:     dir,
		secrets:       secrets,
		hasher:        hasher,
		latency:       cfg.Latency,
		avatarBaseURL: cfg.AvatarBaseURL,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

// Enroll stores a hash of secret for an existing user.
func (v *HashedVerifier) Enroll(ctx context.Context, userID, secret string) error {
	hash, err := v.hasher.Hash(secret)
	if err != nil {
		return err
	}
	return v.secrets.Put(ctx, userID, hash)
}

func (v *HashedVerifier) VerifyLogin(ctx context.Context, creds LoginCredentials) (User, error) {
	if err := simulateLatency(ctx, v.latency); err != nil {
		return User{}, err
	}

	user, err := v.directory.FindByEmail(ctx, creds.Email)
	if err != nil {
		return User{}, err
	}

	hash, err := v.secrets.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	ok, err := v.hasher.Verify(creds.Password, hash)
	if err != nil || !ok {
		return User{}, ErrInvalidCredentials
	}

	if upgrade, _ := v.hasher.NeedsRehash(hash); upgrade {
		// Best effort; the old hash still verifies.
		if fresh, err := v.hasher.Hash(creds.Password); err == nil {
			_ = v.secrets.Put(ctx, user.ID, fresh)
		}
	}

	return user, nil
}

// VerifyRegistration stores the hash before inserting the user, so a
// failed step leaves neither a directory entry nor a stray secret.
func (v *HashedVerifier) VerifyRegistration(ctx context.Context, data RegisterData) (User, error) {
	if err := simulateLatency(ctx, v.latency); err != nil {
		return User{}, err
	}
	if !data.Role.Valid() {
		return User{}, ErrRoleInvalid
	}

	if _, err := v.directory.FindByEmail(ctx, data.Email); err == nil {
		return User{}, ErrAlreadyExists
	}

	hash, err := v.hasher.Hash(data.Password)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrRegistrationInvalid, err)
	}

	user := newUserRecord(v.newID(), data, v.avatarBaseURL, v.now())
	if err := v.secrets.Put(ctx, user.ID, hash); err != nil {
		return User{}, err
	}
	if err := v.directory.Insert(ctx, user); err != nil {
		_ = v.secrets.Delete(ctx, user.ID)
		return User{}, err
	}

	return user, nil
}
