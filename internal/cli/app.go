package cli

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vanallenlab/almanac/internal/config"
	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/logging"
	"github.com/vanallenlab/almanac/internal/metrics"
	"github.com/vanallenlab/almanac/internal/oracle"
	"github.com/vanallenlab/almanac/internal/store"
)

// app holds what a command opens from configuration. Close releases it.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	redis   *redis.Client
	metrics *metrics.Metrics
}

// openApp loads the configuration, builds the logger and opens the
// knowledgebase. Failures are command errors (exit code 2).
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}

	mapping, err := cfg.Search.Mapping()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid search config", err)
	}

	logger.Debug("opening database", "driver", cfg.Database.Driver)
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN,
		store.WithMapping(mapping),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{cfg: cfg, logger: logger, store: st}
	if cfg.Redis.Enabled() {
		logger.Debug("using redis oracle cache", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTLDuration())
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return a, nil
}

// Close releases the redis client and the database.
func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

// oracle builds the lookup chain over the store: redis when configured,
// then request-spanning deduplication, then metrics when enabled.
func (a *app) oracle() oracle.Oracle {
	var o oracle.Oracle = a.store
	if a.redis != nil {
		o = oracle.NewRedisCache(o, a.redis, a.cfg.Redis.TTLDuration(), a.logger)
	}
	o = oracle.NewShared(o)
	if a.metrics != nil {
		o = oracle.NewInstrumented(o, a.metrics)
	}
	return o
}

func (a *app) interpreter() (*interpret.Interpreter, error) {
	cfg, err := a.cfg.Search.ResolveConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid search config", err)
	}
	tagMiss, err := a.cfg.Search.TagMissPolicy()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid search config", err)
	}
	return interpret.New(a.oracle(),
		interpret.WithResolveConfig(cfg),
		interpret.WithTagMiss(tagMiss),
		interpret.WithLogger(a.logger),
	), nil
}

func (a *app) closeLogged() {
	if err := a.Close(); err != nil {
		a.logger.Error("error closing resources", "error", err)
	}
}
