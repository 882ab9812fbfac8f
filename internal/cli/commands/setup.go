// Package commands implements the tabdb subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabdb/internal/cli/config"
	"github.com/leapstack-labs/tabdb/internal/client"
	"github.com/leapstack-labs/tabdb/internal/engine"
	"github.com/leapstack-labs/tabdb/internal/state"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// ErrCommandFailed is returned when a command sent by exec answers with
// an error response. The response itself has already been printed.
var ErrCommandFailed = errors.New("command failed")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Format),
	}
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// Executor runs commands, either against a server or in-process.
type Executor interface {
	Send(ctx context.Context, command string) (string, error)
	Close() error
}

// localExecutor runs commands against an in-process engine.
type localExecutor struct {
	engine *engine.Engine
	store  *state.SQLiteStore
}

func (l *localExecutor) Send(ctx context.Context, command string) (string, error) {
	return l.engine.Handle(engine.WithClientID(ctx, "local"), command), nil
}

func (l *localExecutor) Close() error {
	if l.store != nil {
		return l.store.Close()
	}
	return nil
}

// newExecutor connects to the configured server, or opens the storage
// root directly when local is set.
func newExecutor(ctx context.Context, cc *CommandContext, local bool) (Executor, error) {
	if !local {
		c, err := client.Dial(ctx, cc.Cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("%w (start a server with `tabdb serve` or use --local)", err)
		}
		cc.Logger.Debug("connected", "addr", c.RemoteAddr())
		return c, nil
	}

	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, err
	}
	var recorder core.Recorder
	if store != nil {
		recorder = store
	}
	eng, err := engine.New(engine.Config{Root: cc.Cfg.Root, Recorder: recorder, Logger: cc.Logger})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return &localExecutor{engine: eng, store: store}, nil
}

// openStore opens and migrates the audit log. It returns nil when
// auditing is disabled.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if !cfg.Audit {
		return nil, nil
	}
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
