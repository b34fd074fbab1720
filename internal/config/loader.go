package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables. It attempts to load
// from a .env file first (for local development), then parses environment
// variables into the Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	// Real-world UTC offsets; the game day must map to an actual calendar.
	if c.DayOffsetHours < -12 || c.DayOffsetHours > 14 {
		return fmt.Errorf("invalid DAY_OFFSET_HOURS: %d (must be -12 to 14)", c.DayOffsetHours)
	}

	return nil
}
