// Package config loads the monitor's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// Config is the monitor configuration file. Missing fields keep their
// defaults.
type Config struct {
	// Device is the serial device path.
	Device string `yaml:"device"`

	// Baud is the serial baud rate.
	Baud int `yaml:"baud"`

	// LogLevel is a zerolog level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// StorePath enables the SQLite drift store when set.
	StorePath string `yaml:"store_path"`

	// Window is the number of tick-rate estimates averaged; zero keeps
	// the monitor's default.
	Window int `yaml:"window"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device:   "/dev/ttyACM0",
		Baud:     115200,
		LogLevel: "info",
	}
}

// Load reads path and merges it over the defaults. Unknown keys are
// rejected so typos fail loudly.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
