package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/config"
	"github.com/roach88/avada/internal/content"
	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/rotation"
	"github.com/roach88/avada/internal/skill"
	"github.com/roach88/avada/internal/store"
	"github.com/roach88/avada/internal/telemetry"
)

// loadConfig reads AVADA_* variables and applies the global flags the user
// set explicitly, then any command-specific overrides.
func loadConfig(cmd *cobra.Command, opts *RootOptions, overrides ...func(*config.Config)) (config.Config, error) {
	cfg, err := config.ParseEnv()
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid environment", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB = opts.DB
	}
	if flags.Changed("catalog") {
		cfg.Catalog = opts.Catalog
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// newLogger writes structured logs to the command's stderr.
func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	level, err := telemetry.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return telemetry.NewLogger(cmd.ErrOrStderr(), level, cfg.LogFormat)
}

// openStore opens the configured database.
func openStore(cfg config.Config, logger *slog.Logger) (*store.Store, error) {
	logger.Debug("opening database", "path", cfg.DB)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeStore logs instead of failing: by the time it runs the command's
// result has been decided.
func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// runtime is everything a command needs to hold conversations.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	store  *store.Store
	skill  *skill.Skill
}

// openRuntime loads the catalog, opens the store and builds the skill.
// A non-zero seed makes every new rotation reproducible.
func openRuntime(cmd *cobra.Command, cfg config.Config) (*runtime, error) {
	logger := newLogger(cmd, cfg)

	catalog, err := content.Load(cfg.Catalog)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var shuffler rotation.Shuffler
	if cfg.Seed != 0 {
		shuffler = rotation.NewSeededShuffler(cfg.Seed)
	}

	sk, err := skill.New(skill.Options{
		Store:   st,
		Catalog: catalog,
		Engine:  rotation.New(shuffler),
		Sink:    st,
		Logger:  logger,
	})
	if err != nil {
		closeStore(st, logger)
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, store: st, skill: sk}, nil
}

func (r *runtime) Close() {
	closeStore(r.store, r.logger)
}

// userArg normalizes a user id argument the way sessions store it.
func userArg(arg string) (string, error) {
	id, err := profile.NormalizeUserID(arg)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid user id", err)
	}
	return id, nil
}

// startError maps session start failures to exit codes.
func startError(err error) error {
	if errors.Is(err, content.ErrUnknownPlatform) || errors.Is(err, profile.ErrEmptyUserID) {
		return WrapExitError(ExitCommandError, "invalid session", err)
	}
	return WrapExitError(ExitFailure, "failed to start session", err)
}
