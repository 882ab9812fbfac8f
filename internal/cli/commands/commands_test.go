package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewServeCommand(), "serve", []string{"listen", "http-addr", "watch", "audit"}},
		{NewExecCommand(), "exec [command]", []string{"local", "addr"}},
		{NewREPLCommand(), "repl", []string{"local", "addr"}},
		{NewHistoryCommand(), "history", []string{"limit", "client", "status", "prune"}},
		{NewConfigCommand(), "config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			for _, name := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(name), "missing flag --%s", name)
			}
		})
	}
}

func TestHistoryLimitShorthand(t *testing.T) {
	cmd := NewHistoryCommand()
	f := cmd.Flags().ShorthandLookup("n")
	require.NotNil(t, f)
	assert.Equal(t, "limit", f.Name)
	assert.Equal(t, "50", f.DefValue)
}

func TestServeAuditDefault(t *testing.T) {
	f := NewServeCommand().Flags().Lookup("audit")
	require.NotNil(t, f)
	assert.Equal(t, "true", f.DefValue)
}
