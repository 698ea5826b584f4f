package estateauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/peanechestate/estateauth/internal/audit"
	"github.com/peanechestate/estateauth/session"
)

// Builder assembles an [Engine]. Configure it during initialization and
// call Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  session.Store

	directory Directory
	verifier  CredentialVerifier
	auditSink AuditSink
	logger    *zerolog.Logger
	now       func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis persists the session handle in Redis under Config.SessionKey.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore supplies the persistence surface directly. It takes precedence
// over WithRedis.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithDirectory replaces the built-in seeded [MemoryDirectory].
func (b *Builder) WithDirectory(dir Directory) *Builder {
	b.directory = dir
	return b
}

// WithVerifier replaces the verifier selected by Config.Verifier.Mode.
func (b *Builder) WithVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides time.Now for timestamps and latency measurement.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and returns an engine in
// [PhaseUninitialized]. Call [Engine.Recover] before Login or Register.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = b.logger.With().Str("component", "estateauth").Logger()
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	store, err := b.buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	directory := b.directory
	if directory == nil {
		var seed []User
		if cfg.Verifier.SeedDirectory {
			seed = SeedUsers(cfg.Verifier.AvatarBaseURL, now())
		}
		directory = NewMemoryDirectory(seed...)
	}

	verifier := b.verifier
	if verifier == nil {
		verifier, err = buildVerifier(cfg, directory, now)
		if err != nil {
			return nil, err
		}
	}

	e := &Engine{
		config:    cfg,
		store:     store,
		directory: directory,
		verifier:  verifier,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
		now:       now,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	e.init()

	b.built = true
	return e, nil
}

func (b *Builder) buildStore(cfg Config, logger zerolog.Logger) (session.Store, error) {
	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("session store or redis client required")
		}
		store = session.NewRedisStore(b.redis, cfg.SessionKey(), cfg.Session.TTL)
	}

	if cfg.Session.BreakerEnabled {
		store = session.NewBreakerStore(store, session.BreakerSettings{
			Name:     cfg.SessionKey(),
			Failures: cfg.Session.BreakerFailures,
			Cooldown: cfg.Session.BreakerCooldown,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("session store breaker changed state")
			},
		})
	}

	return store, nil
}

func buildVerifier(cfg Config, dir Directory, now func() time.Time) (CredentialVerifier, error) {
	switch cfg.Verifier.Mode {
	case VerifierArgon2:
		v, err := NewHashedVerifier(dir, NewMemorySecretStore(), cfg.Verifier)
		if err != nil {
			return nil, fmt.Errorf("argon2 verifier: %w", err)
		}
		v.now = now
		if cfg.Verifier.SeedDirectory {
			for _, u := range SeedUsers(cfg.Verifier.AvatarBaseURL, now()) {
				if err := v.Enroll(context.Background(), u.ID, cfg.Verifier.AcceptedPassword); err != nil {
					return nil, fmt.Errorf("enroll seed %s: %w", u.Email, err)
				}
			}
		}
		return v, nil
	default:
		v := NewMockVerifier(dir, cfg.Verifier)
		v.now = now
		return v, nil
	}
}
