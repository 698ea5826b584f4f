package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/internal/config"
	"github.com/peanechestate/estateauth/internal/logging"
)

type rootOptions struct {
	configPath string
	redisAddr  string
	logLevel   string
	logFormat  string
	noLatency  bool
}

// app is what every subcommand receives once flags and config are resolved.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	out    io.Writer
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "estateauth",
		Short:         "Session and role dispatch for the Peanech Estate front-end",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.redisAddr != "" {
				cfg.Redis.Addr = opts.redisAddr
			}
			if opts.logLevel != "" {
				cfg.Logger.Level = opts.logLevel
			}
			if opts.logFormat != "" {
				cfg.Logger.Format = opts.logFormat
			}
			if opts.noLatency {
				cfg.Auth.Verifier.Latency = 0
			}

			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.logger = logging.New(cmd.ErrOrStderr(), cfg.Logger.Level, cfg.Logger.Format)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; empty uses ESTATEAUTH_REDIS_ADDR or an embedded server")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (json or console)")
	flags.BoolVar(&opts.noLatency, "no-latency", false, "disable simulated verifier latency")

	rootCmd.AddCommand(
		newServeCommand(a),
		newLoginCommand(a),
		newRegisterCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newBenchCommand(a),
	)

	return rootCmd
}

// redisClient connects to the configured Redis, or starts an embedded
// miniredis when no address is set. Sessions in the embedded server do not
// outlive the process.
func (a *app) redisClient() (redis.UniversalClient, func(), error) {
	addr := a.cfg.Redis.Addr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		a.logger.Warn().Str("addr", mr.Addr()).Msg("using embedded redis; sessions end with the process")
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.logger.Debug().Str("addr", addr).Msg("using redis")
	return client, func() { _ = client.Close() }, nil
}

// openEngine builds an engine over Redis and recovers the persisted session.
func (a *app) openEngine(ctx context.Context) (*estateauth.Engine, redis.UniversalClient, func(), error) {
	client, closeRedis, err := a.redisClient()
	if err != nil {
		return nil, nil, nil, err
	}

	sink := estateauth.NewLogSink(a.logger)
	engine, err := estateauth.New().
		WithConfig(a.cfg.Auth).
		WithRedis(client).
		WithLogger(a.logger).
		WithAuditSink(sink).
		Build()
	if err != nil {
		closeRedis()
		return nil, nil, nil, err
	}

	engine.Recover(ctx)

	return engine, client, func() {
		engine.Close()
		closeRedis()
	}, nil
}
