package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production the variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
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
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d (must be 1-65535)", c.HTTPPort)
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}
	if c.SessionTTLMinutes < 1 {
		return fmt.Errorf("invalid SESSION_TTL_MINUTES: %d (must be positive)", c.SessionTTLMinutes)
	}

	switch c.RuleSource {
	case "sanity":
		if c.SanityProjectID == "" {
			return fmt.Errorf("SANITY_PROJECT_ID is required when RULE_SOURCE=sanity")
		}
	case "file":
		if c.ModalsConfigPath == "" {
			return fmt.Errorf("MODALS_CONFIG_PATH is required when RULE_SOURCE=file")
		}
	default:
		return fmt.Errorf("invalid RULE_SOURCE: %q (must be sanity or file)", c.RuleSource)
	}

	if c.OtelEnabled && c.ZipkinEndpoint == "" {
		return fmt.Errorf("ZIPKIN_ENDPOINT is required when OTEL_ENABLED=true")
	}

	return nil
}
