package estateauth

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config holds every tunable of the engine. Obtain defaults with
// [DefaultConfig] and adjust before passing to [Builder.WithConfig].
type Config struct {
	Session  SessionConfig
	Verifier VerifierConfig
	Gate     GateConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the persisted session handle.
type SessionConfig struct {
	// RedisPrefix namespaces the handle key in Redis.
	RedisPrefix string
	// Key is the single fixed key holding the serialized user.
	Key string
	// TTL expires the handle; zero keeps it until logout.
	TTL time.Duration
	// BreakerEnabled wraps the persistence surface in a circuit breaker.
	BreakerEnabled bool
	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
}

/*
====================================
VERIFIER CONFIG
====================================
*/

// VerifierMode selects the credential verifier built by [Builder.Build]
// when none is supplied.
type VerifierMode string

const (
	// VerifierMock accepts one fixed password for every known email.
	VerifierMock VerifierMode = "mock"
	// VerifierArgon2 stores argon2id hashes per user.
	VerifierArgon2 VerifierMode = "argon2"
)

// VerifierConfig controls credential checking.
type VerifierConfig struct {
	Mode VerifierMode
	// Latency is the simulated round trip of each verification.
	Latency time.Duration
	// AcceptedPassword is the password the mock verifier accepts and the
	// password seeded identities receive under the argon2 verifier.
	AcceptedPassword string
	// AvatarBaseURL is the generator the default avatar is derived from.
	AvatarBaseURL string
	// SeedDirectory inserts the three fixed identities at build time.
	SeedDirectory bool
	Password      PasswordConfig
}

// PasswordConfig holds argon2id parameters for [VerifierArgon2].
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
GATE / AUDIT / METRICS
====================================
*/

// GateConfig controls the authorization gate.
type GateConfig struct {
	// LandingPath is where denied visitors are redirected.
	LandingPath string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the front-end ships with.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:     "estate",
			Key:             "currentUser",
			TTL:             0,
			BreakerEnabled:  false,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Verifier: VerifierConfig{
			Mode:             VerifierMock,
			Latency:          time.Second,
			AcceptedPassword: "password123",
			AvatarBaseURL:    "https://api.dicebear.com/7.x/avataaars/svg",
			SeedDirectory:    true,
			Password: PasswordConfig{
				Memory:      65536,
				Time:        3,
				Parallelism: 2,
				SaltLength:  16,
				KeyLength:   32,
			},
		},
		Gate: GateConfig{
			LandingPath: "/",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Key) == "" {
		return errors.New("Session Key must not be empty")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, " \t\n") {
		return errors.New("Session RedisPrefix must not contain whitespace")
	}
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}
	if c.Session.BreakerEnabled {
		if c.Session.BreakerFailures == 0 {
			return errors.New("Session BreakerFailures must be > 0 when BreakerEnabled is true")
		}
		if c.Session.BreakerCooldown <= 0 {
			return errors.New("Session BreakerCooldown must be > 0 when BreakerEnabled is true")
		}
	}

	switch c.Verifier.Mode {
	case VerifierMock, VerifierArgon2:
	default:
		return errors.New("unsupported Verifier Mode")
	}
	if c.Verifier.Latency < 0 {
		return errors.New("Verifier Latency must be >= 0")
	}
	if c.Verifier.AcceptedPassword == "" {
		return errors.New("Verifier AcceptedPassword must not be empty")
	}
	if _, err := url.ParseRequestURI(c.Verifier.AvatarBaseURL); err != nil {
		return errors.New("Verifier AvatarBaseURL must be an absolute URL")
	}

	if !strings.HasPrefix(c.Gate.LandingPath, "/") {
		return errors.New("Gate LandingPath must start with /")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}

// SessionKey returns the fully qualified persistence key.
func (c *Config) SessionKey() string {
	if c.Session.RedisPrefix == "" {
		return c.Session.Key
	}
	return c.Session.RedisPrefix + ":" + c.Session.Key
}
