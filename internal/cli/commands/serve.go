package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabdb/internal/engine"
	"github.com/leapstack-labs/tabdb/internal/server"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tabdb server",
		Long: `Start a server that accepts one command per line over TCP.

Every response ends with a line holding a single EOT (0x04) byte. The
server can also expose an HTTP admin API, watch the storage root for
changes made outside the server, and keep an audit log of every command
in SQLite.`,
		Example: `  # Serve ./databases on :8888
  tabdb serve

  # Custom storage root and port, with the HTTP API and the watcher
  tabdb serve --root /var/lib/tabdb --listen :9000 --http-addr :9001 --watch`,
		RunE: runServe,
	}

	cmd.Flags().String("listen", "", "TCP listen address (default \":8888\")")
	cmd.Flags().String("http-addr", "", "HTTP admin API address (disabled when empty)")
	cmd.Flags().Bool("watch", false, "Watch the storage root for external changes")
	cmd.Flags().Bool("audit", true, "Record every command in the audit log")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	cfg, logger := cc.Cfg, cc.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	var recorder core.Recorder
	var history core.Store
	if store != nil {
		defer func() { _ = store.Close() }()
		recorder, history = store, store
		logger.Info("audit log enabled", "path", cfg.StatePath)
	}

	eng, err := engine.New(engine.Config{Root: cfg.Root, Recorder: recorder, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	srv := server.New(server.Config{
		Engine:   eng,
		Store:    history,
		Listen:   cfg.Listen,
		HTTPAddr: cfg.HTTPAddr,
		Watch:    cfg.Watch,
		Logger:   logger,
	})

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "tabdb serving %s on %s\n", cfg.Root, cfg.Listen)
	if cfg.HTTPAddr != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "HTTP API on %s\n", cfg.HTTPAddr)
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to stop")

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
