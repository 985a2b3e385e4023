package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/hirm/errors"
)

var (
	globalConfig  *Config
	viperInstance *viper.Viper
	globalMu      sync.Mutex
)

// Load reads the hirm configuration using Viper. The result is cached until
// Reset is called.
func Load() (*Config, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return globalConfig, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path. Environment
// variables are not consulted; relative dataset paths resolve against the
// file's directory.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", configPath)
	}
	base := filepath.Dir(configPath)
	config.Dataset.Schema = resolvePath(base, config.Dataset.Schema)
	config.Dataset.Observations = resolvePath(base, config.Dataset.Observations)
	config.Dataset.Clusters = resolvePath(base, config.Dataset.Clusters)
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold globalMu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	// HIRM_DATASET_SCHEMA overrides dataset.schema, and so on
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// findProjectConfig walks up from the working directory looking for
// hirm.toml and returns the first match, or "".
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// configPaths lists config files in precedence order, lowest first.
func configPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, UserDirName, ProjectFileName))
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}
	return paths
}

// mergeConfigFiles merges configuration files in precedence order:
// user < project < env vars. Relative dataset paths in a file resolve
// against that file's directory.
func mergeConfigFiles(v *viper.Viper) {
	for _, configPath := range configPaths() {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(configPath)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		settings := tempViper.AllSettings()
		if section, ok := settings["dataset"].(map[string]interface{}); ok {
			base := filepath.Dir(configPath)
			for _, key := range []string{"schema", "observations", "clusters"} {
				if s, ok := section[key].(string); ok {
					section[key] = resolvePath(base, s)
				}
			}
		}
		// MergeConfigMap keeps env vars above file values
		v.MergeConfigMap(settings)
	}
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
