package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/tabdb/internal/cli/config"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file, TABDB_*
environment variables and flags have been merged, as YAML.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			out := cmd.OutOrStdout()

			if file := config.GetConfigFileUsed(); file != "" {
				_, _ = fmt.Fprintf(out, "# config file: %s\n", file)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
