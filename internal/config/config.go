// Package config loads the pipeline configuration from a YAML or JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the deployment settings for the governance pipeline.
type Config struct {
	// ListenAddr is the HTTP listen address for serve mode.
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// Redis configures the optional redis knowledge store and locker.
	// An empty address keeps everything in memory.
	Redis RedisConfig `yaml:"redis" json:"redis"`

	// VoterRoster is the user list handed to the sentiment-prediction stage.
	VoterRoster []string `yaml:"voter_roster" json:"voter_roster"`

	// TreasuryBalance is the balance assumed for financial-impact analysis.
	TreasuryBalance float64 `yaml:"treasury_balance" json:"treasury_balance"`

	// MaxStageFailures escalates a workflow to errored at this many stage
	// failures. Zero never escalates.
	MaxStageFailures int `yaml:"max_stage_failures" json:"max_stage_failures"`

	// StageTimeout records a stage failure when no result arrives in time.
	// Zero disables stage timeouts. Accepts Go duration strings ("30s").
	StageTimeout Duration `yaml:"stage_timeout" json:"stage_timeout"`

	// SeedDemoData loads the sample voter graph on startup.
	SeedDemoData bool `yaml:"seed_demo_data" json:"seed_demo_data"`
}

// Duration is a time.Duration that unmarshals from "30s"-style strings in
// both YAML and JSON.
type Duration time.Duration

// UnmarshalYAML parses a duration string or raw nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(ns)
	return nil
}

// UnmarshalJSON parses a duration string or raw nanosecond count.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := json.Unmarshal(data, &ns); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(ns)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		VoterRoster:     []string{"alice", "bob", "charlie", "dave", "eve"},
		TreasuryBalance: 1000.0,
		SeedDemoData:    true,
	}
}

// Load reads the configuration file at path, YAML by default or JSON by
// extension. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml config: %w", err)
		}
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.TreasuryBalance <= 0 {
		cfg.TreasuryBalance = 1000.0
	}
	return cfg, nil
}
