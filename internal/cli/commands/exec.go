package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabdb/internal/engine"
)

// maxScriptLine bounds one line of a script read from stdin.
const maxScriptLine = 16 << 20

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Local bool
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec [command]",
		Short: "Run commands against a server or the local storage root",
		Long: `Run one command, given as arguments, or a script read from stdin with
one command per line. Lines that are empty or start with "--" are skipped.

By default commands are sent to the server at --addr. With --local they
run in-process against the storage root.`,
		Example: `  tabdb exec "CREATE DATABASE shop;"
  tabdb exec --local "USE shop;"
  tabdb exec --format table < script.tdb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Local, "local", false, "Run in-process against the storage root")
	cmd.Flags().String("addr", "", "Server address (default \"localhost:8888\")")

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	exec, err := newExecutor(ctx, cc, opts.Local)
	if err != nil {
		return err
	}
	defer func() { _ = exec.Close() }()

	if len(args) > 0 {
		return execOne(ctx, exec, cc.Renderer, strings.Join(args, " "))
	}
	return execScript(ctx, exec, cc.Renderer, cmd.InOrStdin())
}

// execOne sends command and prints the response.
func execOne(ctx context.Context, exec Executor, r *Renderer, command string) error {
	resp, err := exec.Send(ctx, command)
	if err != nil {
		return err
	}
	if err := r.Response(resp); err != nil {
		return err
	}
	if !engine.IsOK(resp) {
		return ErrCommandFailed
	}
	return nil
}

// execScript runs every command read from in. It keeps going after error
// responses and reports failure at the end.
func execScript(ctx context.Context, exec Executor, r *Renderer, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScriptLine)

	failed := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if err := execOne(ctx, exec, r, line); err != nil {
			if !errors.Is(err, ErrCommandFailed) {
				return err
			}
			failed++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d command(s) returned an error", ErrCommandFailed, failed)
	}
	return nil
}
