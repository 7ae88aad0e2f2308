package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// StorageConfig selects and configures the history persister
type StorageConfig struct {
	Type                   string `toml:"Type"` // sqlite, redis or none
	SQLitePath             string `toml:"SQLitePath"`
	RedisAddress           string `toml:"RedisAddress"`
	RedisKeyPrefix         string `toml:"RedisKeyPrefix"`
	FlushIntervalInSeconds uint32 `toml:"FlushIntervalInSeconds"`
}

// MetricRegressionConfig overrides the regression settings of a single metric
type MetricRegressionConfig struct {
	Name      string   `toml:"Name"`
	Direction string   `toml:"Direction"` // smaller-is-better or bigger-is-better
	Tolerance *float64 `toml:"Tolerance"`
}

// RegressionConfig holds the regression detector settings
type RegressionConfig struct {
	WindowSize int                      `toml:"WindowSize"`
	Tolerance  *float64                 `toml:"Tolerance"` // absent means the default tolerance
	Epsilon    float64                  `toml:"Epsilon"`
	Metrics    []MetricRegressionConfig `toml:"Metrics"`
}

// AlertsConfig configures the regression alert webhook. An empty WebhookURL disables it
type AlertsConfig struct {
	WebhookURL       string `toml:"WebhookURL"`
	TimeoutInSeconds uint32 `toml:"TimeoutInSeconds"`
}

// Config maps to the config.toml file for the tracker service
type Config struct {
	ListenAddress string           `toml:"ListenAddress"`
	RepoURL       string           `toml:"RepoURL"`
	Storage       StorageConfig    `toml:"Storage"`
	Regression    RegressionConfig `toml:"Regression"`
	Alerts        AlertsConfig     `toml:"Alerts"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
