// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package config loads the service configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// DefaultPath is the config file read when neither the flag nor the
// environment override it.
const DefaultPath = "/etc/ephemeral-ml/ephemeral-ml.yaml"

// Config holds the shared settings of every binary. Unknown keys in the
// file are ignored.
type Config struct {
	DBURL         string `yaml:"db_url"`
	DBName        string `yaml:"db_name"`
	ListenAddress string `yaml:"listen_address"`
	ListenPort    int    `yaml:"listen_port"`
	RelayHost     string `yaml:"relay_host"`
	RelayPort     int    `yaml:"relay_port"`
	Domain        string `yaml:"domain"`
	LogFile       string `yaml:"log_file"`
}

// defaults returns a Config pre-filled with the development defaults.
func defaults() Config {
	return Config{
		DBURL:         "nats://localhost:4222",
		DBName:        "ephemeral-ml",
		ListenAddress: "127.0.0.1",
		ListenPort:    25,
		RelayHost:     "localhost",
		RelayPort:     1025,
	}
}

// ResolvePath picks the config file path: the flag value when non-empty,
// else the environment override, else the default.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(constants.EnvConfigFile); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewServiceUnavailable(fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewValidation(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields every binary depends on.
func (c *Config) Validate() error {
	if c.DBURL == "" {
		return errors.NewValidation("db_url is required")
	}
	if c.DBName == "" {
		return errors.NewValidation("db_name is required")
	}
	if c.Domain == "" {
		return errors.NewValidation("domain is required")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return errors.NewValidation("listen_port must be in 1..65535")
	}
	if c.RelayPort <= 0 || c.RelayPort > 65535 {
		return errors.NewValidation("relay_port must be in 1..65535")
	}
	return nil
}
