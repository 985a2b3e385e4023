package config

import (
	"strings"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Comment marker: empty disables comments, whitespace can never match a field
	if strings.ContainsAny(c.Parser.CommentMarker, " \t\r\n\v\f") {
		return errors.Newf("parser.comment_marker must not contain whitespace, got %q", c.Parser.CommentMarker)
	}

	// Observations and clusters are meaningless without the schema they reference
	if c.Dataset.Schema == "" {
		if c.Dataset.Observations != "" || c.Dataset.Clusters != "" {
			return errors.WithHint(
				errors.New("dataset.schema is required when dataset.observations or dataset.clusters is set"),
				"add schema = \"path/to/model.schema\" under [dataset]")
		}
		if c.Dataset.Watch {
			return errors.New("dataset.watch requires dataset.schema")
		}
	}

	// Debounce: 0 = use default, negative = invalid
	if c.Dataset.DebounceMS < 0 {
		return errors.Newf("dataset.debounce_ms must be >= 0, got %d", c.Dataset.DebounceMS)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}

	return nil
}
