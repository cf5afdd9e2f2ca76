package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/forecastdb/internal/catalog"
	"github.com/roach88/forecastdb/internal/config"
	"github.com/roach88/forecastdb/internal/store"
)

// session is the configuration, store and run catalog shared by one command.
type session struct {
	cfg     *config.Config
	store   *store.Store
	catalog *catalog.Catalog
}

// openSession loads configuration, configures logging and opens the store
// and run catalog.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	configureLogging(cfg, opts.Verbose, cmd.ErrOrStderr())

	ctx := commandContext(cmd)
	slog.Debug("opening database", "driver", cfg.Database.Driver)
	st, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	cat, err := catalog.Open(ctx, st)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load runs", err)
	}
	return &session{cfg: cfg, store: st, catalog: cat}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// configureLogging installs the process logger. --verbose forces debug.
func configureLogging(cfg *config.Config, verbose bool, w io.Writer) {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
