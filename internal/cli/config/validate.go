package config

import (
	"fmt"
	"slices"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (expected one of %v)", c.Format, Formats)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log_format %q (expected text or json)", c.LogFormat)
	}
	if c.Audit && c.StatePath == "" {
		return fmt.Errorf("state_path is required when audit is enabled")
	}
	return nil
}
