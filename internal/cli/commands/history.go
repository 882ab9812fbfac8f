package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabdb/internal/state"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Client string
	Status string
	Prune  time.Duration
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the command audit log",
		Long: `Show the most recent commands recorded in the audit log, newest first.
The log is written by 'tabdb serve' and by --local sessions.`,
		Example: `  tabdb history --limit 20
  tabdb history --status error --format json
  tabdb history --prune 720h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "Maximum number of records")
	cmd.Flags().StringVar(&opts.Client, "client", "", "Only show commands from this client id")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Only show commands with this status (ok|error)")
	cmd.Flags().DurationVar(&opts.Prune, "prune", 0, "Delete records older than this duration instead of listing")

	_ = cmd.RegisterFlagCompletionFunc("status", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.CommandStatusOK), string(core.CommandStatusError)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	switch core.CommandStatus(opts.Status) {
	case "", core.CommandStatusOK, core.CommandStatusError:
	default:
		return fmt.Errorf("unknown status %q (expected ok or error)", opts.Status)
	}

	if _, err := os.Stat(cc.Cfg.StatePath); err != nil {
		return fmt.Errorf("no audit log at %s", cc.Cfg.StatePath)
	}

	store := state.NewSQLiteStore(cc.Logger)
	if err := store.Open(cc.Cfg.StatePath); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(); err != nil {
		return err
	}

	if opts.Prune > 0 {
		n, err := store.PruneCommands(ctx, time.Now().Add(-opts.Prune))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", n)
		return nil
	}

	records, err := store.ListCommands(ctx, core.CommandFilter{
		Limit:    opts.Limit,
		ClientID: opts.Client,
		Status:   core.CommandStatus(opts.Status),
	})
	if err != nil {
		return err
	}
	return cc.Renderer.History(records)
}
