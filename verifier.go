package estateauth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// CredentialVerifier checks credentials and registrations against a
// [Directory]. Implementations may block on I/O; the [Engine] never
// cancels a call once started.
//
// Failures are side-effect free. A successful VerifyRegistration inserts
// exactly one directory entry.
type CredentialVerifier interface {
	VerifyLogin(ctx context.Context, creds LoginCredentials) (User, error)
	VerifyRegistration(ctx context.Context, data RegisterData) (User, error)
}

// MockVerifier accepts one fixed password for every known email. It is a
// stand-in for a real identity backend and holds no secrets.
type MockVerifier struct {
	directory     Directory
	password      string
	latency       time.Duration
	avatarBaseURL string
	now           func() time.Time
	newID         func() string
}

// NewMockVerifier builds a [MockVerifier] over dir using the password,
// latency and avatar settings of cfg.
func NewMockVerifier(dir Directory, cfg VerifierConfig) *MockVerifier {
	return &MockVerifier{
		directory:     dir,
		password:      cfg.AcceptedPassword,
		latency:       cfg.Latency,
		avatarBaseURL: cfg.AvatarBaseURL,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// VerifyLogin returns the directory entry for creds.Email when the password
// is the accepted one. It fails with [ErrNotFound] or [ErrInvalidCredentials].
func (v *MockVerifier) VerifyLogin(ctx context.Context, creds LoginCredentials) (User, error) {
	if err := simulateLatency(ctx, v.latency); err != nil {
		return User{}, err
	}

	user, err := v.directory.FindByEmail(ctx, creds.Email)
	if err != nil {
		return User{}, err
	}

	if creds.Password != v.password {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// VerifyRegistration creates and inserts a new user, failing with
// [ErrAlreadyExists] when the email is taken and [ErrRoleInvalid] for a
// role outside the enumeration. Password confirmation is the caller's
// concern; see [RegisterData.Validate].
func (v *MockVerifier) VerifyRegistration(ctx context.Context, data RegisterData) (User, error) {
	if err := simulateLatency(ctx, v.latency); err != nil {
		return User{}, err
	}
	if !data.Role.Valid() {
		return User{}, ErrRoleInvalid
	}

	if _, err := v.directory.FindByEmail(ctx, data.Email); err == nil {
		return User{}, ErrAlreadyExists
	}

	user := newUserRecord(v.newID(), data, v.avatarBaseURL, v.now())
	if err := v.directory.Insert(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

func newUserRecord(id string, data RegisterData, avatarBaseURL string, now time.Time) User {
	return User{
		ID:        id,
		Email:     data.Email,
		Name:      data.Name,
		Role:      data.Role,
		Avatar:    avatarURL(avatarBaseURL, avatarSeed(data.Name)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// avatarSeed derives a URL-safe seed from a display name. Names with no
// transliterable characters fall back to the escaped raw name.
func avatarSeed(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return strings.TrimSpace(name)
}

func avatarURL(base, seed string) string {
	if base == "" {
		return ""
	}
	return base + "?seed=" + url.QueryEscape(seed)
}

func simulateLatency(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
