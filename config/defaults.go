package config

import (
	"github.com/spf13/viper"

	"github.com/teranos/hirm/dataset"
	"github.com/teranos/hirm/parser"
)

// File names searched for, in order, when no explicit path is given.
const (
	ProjectFileName = "hirm.toml"
	UserDirName     = ".hirm"
	EnvPrefix       = "HIRM"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("parser.comment_marker", parser.DefaultCommentMarker)

	// Dataset paths have no default: an unset schema means "no dataset"
	v.SetDefault("dataset.schema", "")
	v.SetDefault("dataset.observations", "")
	v.SetDefault("dataset.clusters", "")
	v.SetDefault("dataset.validate", true)
	v.SetDefault("dataset.strict", false)
	v.SetDefault("dataset.watch", false)
	v.SetDefault("dataset.debounce_ms", int(dataset.DefaultDebounce.Milliseconds()))

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
}

// Default returns the configuration produced by SetDefaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always unmarshal.
		panic(err)
	}
	return cfg
}
