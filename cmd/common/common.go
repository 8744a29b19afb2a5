// Package common provides shared utilities for the registry CLI commands.
//
// It holds the YAML configuration schema, defaults, and the structured
// logger setup used by the service binaries. Command-line flags override
// values loaded from the configuration file.
package common

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	root "github.com/SchrodingerZhu/new-chat/common"
	"github.com/SchrodingerZhu/new-chat/registry"
)

// Duration wraps time.Duration so YAML values like "30s" or "15m" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LogConfig selects the log output format and verbosity.
type LogConfig struct {
	JSON  bool `yaml:"json"`
	Debug bool `yaml:"debug"`
}

// RegistryConfig tunes the idle-record reaper.
type RegistryConfig struct {
	ReapInterval Duration `yaml:"reap_interval"`
	IdleWindow   Duration `yaml:"idle_window"`
}

// Config is the YAML configuration for the registry service.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	EnablePprof bool   `yaml:"pprof"`

	DrainDuration            Duration `yaml:"drain_duration"`
	GracefulShutdownDuration Duration `yaml:"graceful_shutdown_duration"`
	ReadTimeout              Duration `yaml:"read_timeout"`
	WriteTimeout             Duration `yaml:"write_timeout"`

	Log      LogConfig      `yaml:"log"`
	Registry RegistryConfig `yaml:"registry"`
}

// DefaultConfig returns the configuration used when no file is given.
// The metrics server stays disabled until an address is configured.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:                 "127.0.0.1:7878",
		DrainDuration:            Duration(5 * time.Second),
		GracefulShutdownDuration: Duration(10 * time.Second),
		ReadTimeout:              Duration(15 * time.Second),
		WriteTimeout:             Duration(15 * time.Second),
		Registry: RegistryConfig{
			ReapInterval: Duration(registry.DefaultReapInterval),
			IdleWindow:   Duration(registry.DefaultIdleWindow),
		},
	}
}

// LoadConfig reads a YAML configuration file. Values not present in the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SetupLogger builds the process logger from the log configuration.
func SetupLogger(cfg LogConfig) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler).With("service", root.PackageName, "version", root.Version)
}
