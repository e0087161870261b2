package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the kdfx configuration file (~/.config/kdfx/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Workers   *int   `yaml:"workers"`
	OutputDir string `yaml:"output_dir"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envKdfxConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kdfx", "config.yaml")
}

// LoadConfig reads the config file. A missing file is a zero Config.
func LoadConfig() (Config, error) {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Workers != nil && *cfg.Workers < 1 {
		return Config{}, fmt.Errorf("parse %s: workers must be at least 1, got %d", path, *cfg.Workers)
	}
	return cfg, nil
}

// applyLoggingConfig fills the logging flags from the config file when they
// were not set on the command line.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyWorkersConfig applies the workers default to commands that extract.
func applyWorkersConfig(c *cli.Command, cfg Config, workers *int) {
	if cfg.Workers != nil && !c.IsSet("workers") {
		*workers = *cfg.Workers
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, workers *int) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	applyWorkersConfig(c, cfg, workers)
}
