// Package config provides configuration management for the tabdb CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	// Root is the storage root holding one directory per database.
	Root string `koanf:"root" yaml:"root"`
	// Listen is the TCP address served by `tabdb serve`.
	Listen string `koanf:"listen" yaml:"listen"`
	// HTTPAddr enables the HTTP admin API when set.
	HTTPAddr string `koanf:"http_addr" yaml:"http_addr"`
	// Addr is the server address used by client commands.
	Addr string `koanf:"addr" yaml:"addr"`
	// StatePath is the SQLite audit log.
	StatePath string `koanf:"state_path" yaml:"state_path"`
	Audit     bool   `koanf:"audit" yaml:"audit"`
	Watch     bool   `koanf:"watch" yaml:"watch"`
	Verbose   bool   `koanf:"verbose" yaml:"verbose"`
	LogFormat string `koanf:"log_format" yaml:"log_format"`
	// Format selects how client commands print responses.
	Format string `koanf:"format" yaml:"format"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// Default configuration values.
const (
	DefaultRoot      = "databases"
	DefaultListen    = ":8888"
	DefaultAddr      = "localhost:8888"
	DefaultStateFile = ".tabdb/state.db"
	DefaultLogFormat = LogFormatText
	DefaultFormat    = FormatRaw
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Response formats.
const (
	// FormatRaw prints responses exactly as the server sends them.
	FormatRaw = "raw"
	// FormatTable renders result rows as a table.
	FormatTable = "table"
	// FormatJSON prints one JSON object per response.
	FormatJSON = "json"
)

// Formats lists the accepted response formats.
var Formats = []string{FormatRaw, FormatTable, FormatJSON}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Root:      DefaultRoot,
		Listen:    DefaultListen,
		Addr:      DefaultAddr,
		StatePath: DefaultStateFile,
		Audit:     true,
		LogFormat: DefaultLogFormat,
		Format:    DefaultFormat,
	}
}
