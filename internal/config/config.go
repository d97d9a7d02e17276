// Package config loads evaluation server settings from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the evaluation server settings.
type Config struct {
	AppEnv              string  `env:"APP_ENV" envDefault:"local"`
	ListenAddr          string  `env:"LISTEN_ADDR" envDefault:":8080"`
	DataDir             string  `env:"DATA_DIR" envDefault:"./data"`
	IOUThreshold        float64 `env:"IOU_THRESHOLD" envDefault:"0.5"`
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD" envDefault:"0"`
	EvalSlots           int     `env:"EVAL_SLOTS" envDefault:"4"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if cfg.EvalSlots < 1 {
		cfg.EvalSlots = 1
	}

	return cfg, nil
}

// IsLocal reports whether the server runs in the local environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}
