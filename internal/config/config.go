// Package config defines the declarative job configuration consumed by the
// falcon runner, and its loader/validator.
//
// A configuration is normally a TOML file:
//
//	line_start = 2
//	line_end = 100
//	fraction_digits = 2
//
//	[[replacement]]
//	old = "N/A"
//	new = ""
//
//	[[selected]]
//	name = "temp"
//	rename = "temp_c"
//	transform = "x - 273.15"
//
// YAML and JSON files with the same keys are accepted as well.
package config

// Config is the full job configuration.
//
// Pointer fields are optional; nil means "not configured". The zero Config is
// a valid passthrough job (copy every column, every row).
type Config struct {
	// LineStart and LineEnd are 1-based inclusive bounds over data rows
	// (the header row is not counted).
	LineStart *int `mapstructure:"line_start" toml:"line_start,omitempty" yaml:"line_start,omitempty" json:"line_start,omitempty"`
	LineEnd   *int `mapstructure:"line_end" toml:"line_end,omitempty" yaml:"line_end,omitempty" json:"line_end,omitempty"`

	// FractionDigits is the global default for float rendering.
	FractionDigits *int `mapstructure:"fraction_digits" toml:"fraction_digits,omitempty" yaml:"fraction_digits,omitempty" json:"fraction_digits,omitempty"`

	// Replacement is merged into every selected column that has no transform.
	Replacement []Replacement `mapstructure:"replacement" toml:"replacement,omitempty" yaml:"replacement,omitempty" json:"replacement,omitempty"`

	// Selected lists output columns in output order. Empty means passthrough.
	Selected []Selected `mapstructure:"selected" toml:"selected,omitempty" yaml:"selected,omitempty" json:"selected,omitempty"`

	// Delimiter is the input field delimiter. Defaults to ",".
	Delimiter string `mapstructure:"delimiter" toml:"delimiter,omitempty" yaml:"delimiter,omitempty" json:"delimiter,omitempty"`

	// Encoding is the IANA charset name of the input (e.g. "windows-1250").
	// Empty means UTF-8.
	Encoding string `mapstructure:"encoding" toml:"encoding,omitempty" yaml:"encoding,omitempty" json:"encoding,omitempty"`

	Output  Output  `mapstructure:"output" toml:"output,omitempty" yaml:"output,omitempty" json:"output,omitempty"`
	Metrics Metrics `mapstructure:"metrics" toml:"metrics,omitempty" yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Log     Log     `mapstructure:"log" toml:"log,omitempty" yaml:"log,omitempty" json:"log,omitempty"`
}

// Replacement substitutes a cell equal to Old with New.
type Replacement struct {
	Old string `mapstructure:"old" toml:"old" yaml:"old" json:"old"`
	New string `mapstructure:"new" toml:"new" yaml:"new" json:"new"`
}

// Selected describes one output column.
//
// Replacement and Transform are mutually exclusive.
type Selected struct {
	Name           string        `mapstructure:"name" toml:"name" yaml:"name" json:"name"`
	Rename         *string       `mapstructure:"rename" toml:"rename,omitempty" yaml:"rename,omitempty" json:"rename,omitempty"`
	FractionDigits *int          `mapstructure:"fraction_digits" toml:"fraction_digits,omitempty" yaml:"fraction_digits,omitempty" json:"fraction_digits,omitempty"`
	Replacement    []Replacement `mapstructure:"replacement" toml:"replacement,omitempty" yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Transform      *string       `mapstructure:"transform" toml:"transform,omitempty" yaml:"transform,omitempty" json:"transform,omitempty"`
}

// OutputName returns Rename when set, otherwise Name.
func (s Selected) OutputName() string {
	if s.Rename != nil && *s.Rename != "" {
		return *s.Rename
	}
	return s.Name
}

// Output kinds.
const (
	OutputCSV      = "csv"
	OutputSQLite   = "sqlite"
	OutputPostgres = "postgres"
	OutputMSSQL    = "mssql"
	OutputMySQL    = "mysql"
)

// Output selects where transformed rows go. The zero value writes a CSV file
// at the path given on the command line.
type Output struct {
	Kind        string `mapstructure:"kind" toml:"kind,omitempty" yaml:"kind,omitempty" json:"kind,omitempty"`
	DSN         string `mapstructure:"dsn" toml:"dsn,omitempty" yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Table       string `mapstructure:"table" toml:"table,omitempty" yaml:"table,omitempty" json:"table,omitempty"`
	CreateTable bool   `mapstructure:"create_table" toml:"create_table,omitempty" yaml:"create_table,omitempty" json:"create_table,omitempty"`
	BatchSize   int    `mapstructure:"batch_size" toml:"batch_size,omitempty" yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
}

// IsDatabase reports whether rows are loaded into a database table instead of
// a file.
func (o Output) IsDatabase() bool {
	switch o.Kind {
	case OutputSQLite, OutputPostgres, OutputMSSQL, OutputMySQL:
		return true
	default:
		return false
	}
}

// Metrics selects a metrics backend for the run.
type Metrics struct {
	// Backend is "none" (default), "datadog" or "pushgateway".
	Backend        string   `mapstructure:"backend" toml:"backend,omitempty" yaml:"backend,omitempty" json:"backend,omitempty"`
	Job            string   `mapstructure:"job" toml:"job,omitempty" yaml:"job,omitempty" json:"job,omitempty"`
	PushgatewayURL string   `mapstructure:"pushgateway_url" toml:"pushgateway_url,omitempty" yaml:"pushgateway_url,omitempty" json:"pushgateway_url,omitempty"`
	Tags           []string `mapstructure:"tags" toml:"tags,omitempty" yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Log configures the process logger.
type Log struct {
	Level    string `mapstructure:"level" toml:"level,omitempty" yaml:"level,omitempty" json:"level,omitempty"`
	Encoding string `mapstructure:"encoding" toml:"encoding,omitempty" yaml:"encoding,omitempty" json:"encoding,omitempty"`
}

// Comma returns the configured input delimiter as a rune, defaulting to ','.
// Validate rejects delimiters that are not exactly one rune.
func (c Config) Comma() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}
