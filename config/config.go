// Package config loads editor settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the user-tunable settings.
type Config struct {
	TabStop         int    `yaml:"tab_stop"`
	QuitTimes       int    `yaml:"quit_times"`
	SyntaxHighlight bool   `yaml:"syntax_highlight"`
	LogFile         string `yaml:"log_file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		TabStop:         4,
		QuitTimes:       3,
		SyntaxHighlight: true,
	}
}

// DefaultPath returns the conventional location of the config file,
// typically ~/.config/kiro/config.yml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kiro", "config.yml"), nil
}

// Load reads the config file at path. A missing file is not an error and
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.TabStop <= 0 {
		cfg.TabStop = Default().TabStop
	}
	if cfg.QuitTimes <= 0 {
		cfg.QuitTimes = Default().QuitTimes
	}
	return cfg, nil
}
