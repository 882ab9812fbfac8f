package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabdb/pkg/token"
)

const (
	replPrompt     = "tabdb> "
	replContPrompt = "   ...> "
)

// REPLOptions holds options for the repl command.
type REPLOptions struct {
	Local bool
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	opts := &REPLOptions{}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: `Start an interactive session against a server, or against the storage
root with --local. Commands may span several lines and run once a line
ends with ';'. Type .help for the dot-commands.`,
		Example: `  tabdb repl
  tabdb repl --local --root ./databases`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Local, "local", false, "Run in-process against the storage root")
	cmd.Flags().String("addr", "", "Server address (default \"localhost:8888\")")

	return cmd
}

func runREPL(cmd *cobra.Command, opts *REPLOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	exec, err := newExecutor(ctx, cc, opts.Local)
	if err != nil {
		return err
	}
	defer func() { _ = exec.Close() }()

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".tabdb_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	target := cc.Cfg.Addr
	if opts.Local {
		target = cc.Cfg.Root
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tabdb (%s)\n", target)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")

	return (&repl{in: rl, exec: exec, r: cc.Renderer, out: cmd.OutOrStdout()}).run(ctx)
}

// lineReader is the part of readline used by the REPL loop.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

type repl struct {
	in   lineReader
	exec Executor
	r    *Renderer
	out  io.Writer
}

// run reads commands until EOF or .quit. Error responses are printed and
// the loop continues; only a broken connection ends it with an error.
func (p *repl) run(ctx context.Context) error {
	var buf strings.Builder
	for {
		line, err := p.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			p.in.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := p.dotCommand(line); quit {
				return nil
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			p.in.SetPrompt(replContPrompt)
			continue
		}
		p.in.SetPrompt(replPrompt)

		command := buf.String()
		buf.Reset()
		if err := execOne(ctx, p.exec, p.r, command); err != nil && !errors.Is(err, ErrCommandFailed) {
			return err
		}
	}
}

// dotCommand handles a REPL command and reports whether to quit.
func (p *repl) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(p.out)

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(p.out, "format: %s\n", p.r.Format())
			return false
		}
		if err := p.r.SetFormat(parts[1]); err != nil {
			p.r.Errorf("%v", err)
		}

	case ".clear":
		_, _ = fmt.Fprint(p.out, "\033[H\033[2J")

	default:
		p.r.Errorf("unknown command %s (type .help for commands)", parts[0])
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .format [name]     Show or set the response format (raw, table, json)
  .clear             Clear the screen
  .quit / .exit      Exit the REPL

Tips:
  - Commands must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completes keywords
`
	_, _ = fmt.Fprintln(w, help)
}

// newCompleter completes keywords and dot-commands.
func newCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, kw := range token.Keywords() {
		items = append(items, readline.PcItem(kw))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".format",
			readline.PcItem("raw"),
			readline.PcItem("table"),
			readline.PcItem("json"),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
