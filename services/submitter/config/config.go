package config

import (
	"errors"
	"fmt"

	"github.com/multiversx/mx-chain-core-go/core"
)

// ErrInvalidSources signals a source list that can not be collected into one run
var ErrInvalidSources = errors.New("invalid sources configuration")

const (
	// FormatJSON is the github-action-benchmark custom JSON output
	FormatJSON = "json"
	// FormatCargo is the libtest bench text output
	FormatCargo = "cargo"
)

// SourceConfig defines a single benchmark output to collect
type SourceConfig struct {
	Name     string `toml:"Name"`
	Location string `toml:"Location"` // file path or http(s) URL
	Format   string `toml:"Format"`   // json or cargo
	Prefix   string `toml:"Prefix"`   // optional metric name prefix
}

// Config maps to the config.toml file for the submitter
type Config struct {
	Group                   string         `toml:"Group"`
	Tool                    string         `toml:"Tool"`
	TrackerEndpoint         string         `toml:"TrackerEndpoint"`
	CollectTimeoutInSeconds uint32         `toml:"CollectTimeoutInSeconds"`
	ReportTimeoutInSeconds  uint32         `toml:"ReportTimeoutInSeconds"`
	FailOnRegression        bool           `toml:"FailOnRegression"`
	Sources                 []SourceConfig `toml:"Sources"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	cfg := &Config{}
	err := core.LoadTomlFile(cfg, filepath)
	if err != nil {
		return nil, err
	}

	err = cfg.CheckSources()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// CheckSources requires every source to carry a unique, non-empty name. Collected results are keyed by name.
func (cfg Config) CheckSources() error {
	names := make(map[string]struct{}, len(cfg.Sources))
	for idx, source := range cfg.Sources {
		if len(source.Name) == 0 {
			return fmt.Errorf("%w: empty name for source at index %d", ErrInvalidSources, idx)
		}

		_, exists := names[source.Name]
		if exists {
			return fmt.Errorf("%w: duplicate source name %s", ErrInvalidSources, source.Name)
		}
		names[source.Name] = struct{}{}
	}

	return nil
}
