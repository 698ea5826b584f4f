package estateauth

import (
	"context"
	"sync"
	"time"
)

// Directory is the registry of known identities. Email is the unique key
// and is compared exactly as stored.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	Insert(ctx context.Context, user User) error
	Len() int
}

// MemoryDirectory is an in-process [Directory] safe for concurrent use.
type MemoryDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]User
}

// NewMemoryDirectory returns a directory holding seed. Duplicate emails in
// seed keep the first entry.
func NewMemoryDirectory(seed ...User) *MemoryDirectory {
	d := &MemoryDirectory{
		byEmail: make(map[string]User, len(seed)),
	}
	for _, u := range seed {
		if _, exists := d.byEmail[u.Email]; !exists {
			d.byEmail[u.Email] = u
		}
	}
	return d
}

// FindByEmail returns the entry for email or [ErrNotFound].
func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Insert adds user, or returns [ErrAlreadyExists] when the email is taken.
func (d *MemoryDirectory) Insert(_ context.Context, user User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[user.Email]; exists {
		return ErrAlreadyExists
	}
	d.byEmail[user.Email] = user
	return nil
}

// Len returns the number of entries.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byEmail)
}

// SeedUsers returns the three fixed identities, one per role, so the
// system is usable without registering first.
func SeedUsers(avatarBaseURL string, now time.Time) []User {
	return []User{
		{
			ID:        "1",
			Email:     "admin@peanechestate.com",
			Name:      "Admin User",
			Role:      RoleAdmin,
			Avatar:    avatarURL(avatarBaseURL, "admin"),
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "2",
			Email:     "agent@peanechestate.com",
			Name:      "Agent User",
			Role:      RoleAgent,
			Avatar:    avatarURL(avatarBaseURL, "agent"),
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "3",
			Email:     "user@peanechestate.com",
			Name:      "Regular User",
			Role:      RoleVisitor,
			Avatar:    avatarURL(avatarBaseURL, "user"),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
