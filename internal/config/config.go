// Package config loads process settings for the estateauth binary from an
// optional config file, a .env file and ESTATEAUTH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/peanechestate/estateauth"
)

// EnvPrefix namespaces every environment override, e.g.
// ESTATEAUTH_REDIS_ADDR or ESTATEAUTH_SESSION_TTL.
const EnvPrefix = "ESTATEAUTH"

// Config is everything the binary needs to assemble and serve an engine.
type Config struct {
	Server Server
	Redis  Redis
	Logger Logger
	Auth   estateauth.Config
}

type Server struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Redis is the persistence surface. An empty Addr means the caller may
// fall back to an embedded server.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Logger struct {
	Level  string
	Format string
}

// Load reads configPath when set, then .env from the working directory when
// present, then the environment. Later sources override earlier ones.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

// LoadFromEnv is Load without a config file.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	d := estateauth.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("session.redis_prefix", d.Session.RedisPrefix)
	v.SetDefault("session.key", d.Session.Key)
	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.breaker_enabled", d.Session.BreakerEnabled)
	v.SetDefault("session.breaker_failures", d.Session.BreakerFailures)
	v.SetDefault("session.breaker_cooldown", d.Session.BreakerCooldown)

	v.SetDefault("verifier.mode", string(d.Verifier.Mode))
	v.SetDefault("verifier.latency", d.Verifier.Latency)
	v.SetDefault("verifier.accepted_password", d.Verifier.AcceptedPassword)
	v.SetDefault("verifier.avatar_base_url", d.Verifier.AvatarBaseURL)
	v.SetDefault("verifier.seed_directory", d.Verifier.SeedDirectory)
	v.SetDefault("verifier.password.memory", d.Verifier.Password.Memory)
	v.SetDefault("verifier.password.time", d.Verifier.Password.Time)
	v.SetDefault("verifier.password.parallelism", d.Verifier.Password.Parallelism)
	v.SetDefault("verifier.password.salt_length", d.Verifier.Password.SaltLength)
	v.SetDefault("verifier.password.key_length", d.Verifier.Password.KeyLength)

	v.SetDefault("gate.landing_path", d.Gate.LandingPath)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.buffer_size", d.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", d.Audit.DropIfFull)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.latency_histograms", d.Metrics.EnableLatencyHistograms)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Addr:            v.GetString("server.addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: Logger{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
		Auth: getAuthConfig(v),
	}

	if err := cfg.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if cfg.Server.Addr == "" {
		return nil, errors.New("server addr must not be empty")
	}

	return cfg, nil
}

func getAuthConfig(v *viper.Viper) estateauth.Config {
	return estateauth.Config{
		Session: estateauth.SessionConfig{
			RedisPrefix:     v.GetString("session.redis_prefix"),
			Key:             v.GetString("session.key"),
			TTL:             v.GetDuration("session.ttl"),
			BreakerEnabled:  v.GetBool("session.breaker_enabled"),
			BreakerFailures: v.GetUint32("session.breaker_failures"),
			BreakerCooldown: v.GetDuration("session.breaker_cooldown"),
		},
		Verifier: estateauth.VerifierConfig{
			Mode:             estateauth.VerifierMode(strings.ToLower(v.GetString("verifier.mode"))),
			Latency:          v.GetDuration("verifier.latency"),
			AcceptedPassword: v.GetString("verifier.accepted_password"),
			AvatarBaseURL:    v.GetString("verifier.avatar_base_url"),
			SeedDirectory:    v.GetBool("verifier.seed_directory"),
			Password: estateauth.PasswordConfig{
				Memory:      v.GetUint32("verifier.password.memory"),
				Time:        v.GetUint32("verifier.password.time"),
				Parallelism: uint8(v.GetUint("verifier.password.parallelism")),
				SaltLength:  v.GetUint32("verifier.password.salt_length"),
				KeyLength:   v.GetUint32("verifier.password.key_length"),
			},
		},
		Gate: estateauth.GateConfig{
			LandingPath: v.GetString("gate.landing_path"),
		},
		Audit: estateauth.AuditConfig{
			Enabled:    v.GetBool("audit.enabled"),
			BufferSize: v.GetInt("audit.buffer_size"),
			DropIfFull: v.GetBool("audit.drop_if_full"),
		},
		Metrics: estateauth.MetricsConfig{
			Enabled:                 v.GetBool("metrics.enabled"),
			EnableLatencyHistograms: v.GetBool("metrics.latency_histograms"),
		},
	}
}
