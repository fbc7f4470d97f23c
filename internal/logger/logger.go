// Package logger configures zerolog for the command line tools and exposes a
// pipeline option that traces the assembly of a graph.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config contains logging configuration.
type Config struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Format  string `mapstructure:"format" yaml:"format"`
	NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = FormatConsole
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil || c.Level == "" {
		return pipeline.NewConfigurationError("logging.level", "unknown level %q", c.Level)
	}

	switch strings.ToLower(c.Format) {
	case FormatConsole, FormatJSON:
		return nil
	default:
		return pipeline.NewConfigurationError("logging.format", "must be one of [console, json] (got: %s)", c.Format)
	}
}

// New creates a logger writing to w, or to stderr when w is nil.
func New(cfg Config, w io.Writer) zerolog.Logger {
	cfg.ApplyDefaults()

	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
