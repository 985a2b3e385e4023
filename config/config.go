// Package config reads hirm.toml: parser options, the dataset files to load
// and logging settings.
package config

import (
	"time"

	"github.com/teranos/hirm/dataset"
	"github.com/teranos/hirm/logger"
	"github.com/teranos/hirm/parser"
)

// Config represents the complete hirm configuration
type Config struct {
	Parser  parser.Options `mapstructure:"parser" toml:"parser"`
	Dataset DatasetConfig  `mapstructure:"dataset" toml:"dataset"`
	Log     LogConfig      `mapstructure:"log" toml:"log"`
}

// DatasetConfig names the files of the default dataset and how to load them
type DatasetConfig struct {
	Schema       string `mapstructure:"schema" toml:"schema"`
	Observations string `mapstructure:"observations" toml:"observations"`
	Clusters     string `mapstructure:"clusters" toml:"clusters"`

	Validate   bool `mapstructure:"validate" toml:"validate"`       // Attach a validation report to every load
	Strict     bool `mapstructure:"strict" toml:"strict"`           // Fail loads with reference violations
	Watch      bool `mapstructure:"watch" toml:"watch"`             // Reload when the files change
	DebounceMS int  `mapstructure:"debounce_ms" toml:"debounce_ms"` // Watcher settle period (default: 500)
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json"`
	Level string `mapstructure:"level" toml:"level"` // debug, info, warn, error
}

// ParserOptions returns the options for parser.New.
func (c *Config) ParserOptions() parser.Options {
	return c.Parser
}

// DatasetFiles returns the configured dataset paths.
func (c *Config) DatasetFiles() dataset.Files {
	return dataset.Files{
		Schema:       c.Dataset.Schema,
		Observations: c.Dataset.Observations,
		Clusters:     c.Dataset.Clusters,
	}
}

// DatasetOptions translates the dataset settings into options for
// dataset.Load and dataset.NewWatcher.
func (c *Config) DatasetOptions() []dataset.Option {
	opts := []dataset.Option{
		dataset.WithParser(parser.New(parser.WithOptions(c.Parser))),
	}
	switch {
	case c.Dataset.Strict:
		opts = append(opts, dataset.WithStrictValidation())
	case c.Dataset.Validate:
		opts = append(opts, dataset.WithValidation())
	}
	if c.Dataset.DebounceMS > 0 {
		opts = append(opts, dataset.WithDebounce(time.Duration(c.Dataset.DebounceMS)*time.Millisecond))
	}
	return opts
}

// InitLogger configures the global logger from the log section.
func (c *Config) InitLogger() error {
	return logger.InitializeWithLevel(c.Log.JSON, c.Log.Level)
}
