// Package config loads the service configuration from YAML. Secrets (the
// database DSN) may be supplied via environment instead of the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CryptoSharon/hive-stats/internal/infrastructure/db"
	"github.com/CryptoSharon/hive-stats/internal/sources/pricefeed"
)

// Config is the full service configuration.
type Config struct {
	Database  db.Config        `yaml:"database"`
	PriceFeed pricefeed.Config `yaml:"price_feed"`
	HTTP      HTTPConfig       `yaml:"http"`
	Ingest    IngestConfig     `yaml:"ingest"`
}

// HTTPConfig configures the read-only insight API server.
type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// IngestConfig bounds the default backfill range.
type IngestConfig struct {
	FromYear int `yaml:"from_year"`
	ToYear   int `yaml:"to_year"`
}

// Default returns the configuration used when the file leaves a section out.
func Default() Config {
	return Config{
		Database: db.DefaultConfig(),
		HTTP: HTTPConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Ingest: IngestConfig{
			FromYear: 2016, // first full year of chain history
			ToYear:   time.Now().UTC().Year(),
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.PriceFeed.BaseURL == "" {
		return fmt.Errorf("price_feed.base_url is required")
	}
	if c.Ingest.FromYear > c.Ingest.ToYear {
		return fmt.Errorf("ingest.from_year %d is after to_year %d", c.Ingest.FromYear, c.Ingest.ToYear)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d is out of range", c.HTTP.Port)
	}
	return nil
}
