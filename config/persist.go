package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/teranos/hirm/errors"
)

// backupCount is how many rotated copies Save keeps (.back1 newest).
const backupCount = 3

// Save writes cfg to path as TOML. An existing file is rotated into
// path.back1 .. path.back3 first.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save invalid config")
	}

	data, err := gotoml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// createBackup rotates path.back2 -> path.back3, path.back1 -> path.back2
// and copies path to path.back1. A missing path is not an error.
func createBackup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	for i := backupCount - 1; i >= 1; i-- {
		from := backupName(path, i)
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, backupName(path, i+1)); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", from)
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupName(path, 1), content, 0o644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupName(path string, n int) string {
	return path + ".back" + string(rune('0'+n))
}

// UnknownKeys lists the keys in the TOML file at path that no Config field
// recognises, such as typos like "dataset.shema". Viper ignores these
// silently.
func UnknownKeys(path string) ([]string, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	var keys []string
	for _, key := range meta.Undecoded() {
		keys = append(keys, key.String())
	}
	return keys, nil
}
