// Package config loads the oracle configuration from a YAML or JSON file,
// with environment overrides for store credentials so secrets stay out of
// checked-in config files.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rxfeed/oracle/record"
)

// Config is the complete oracle configuration.
type Config struct {
	Asset   AssetConfig   `json:"asset" yaml:"asset"`
	Sources SourcesConfig `json:"sources" yaml:"sources"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// AssetConfig identifies the asset series being maintained.
type AssetConfig struct {
	Symbol            string `json:"symbol" yaml:"symbol"`
	ReferenceCurrency string `json:"reference_currency" yaml:"reference_currency"`
	TargetCurrency    string `json:"target_currency" yaml:"target_currency"`

	// First date to fill when the record is still empty.
	InitialStartDate string `json:"initial_start_date" yaml:"initial_start_date"`
}

// SourcesConfig overrides the upstream endpoints; empty values select the
// public APIs.
type SourcesConfig struct {
	ExchangeURL string `json:"exchange_url,omitempty" yaml:"exchange_url,omitempty"`
	FxURL       string `json:"fx_url,omitempty" yaml:"fx_url,omitempty"`
}

// StoreConfig selects where the record lives: a local file or one object in
// an S3-compatible bucket (Cloudflare R2 in production).
type StoreConfig struct {
	Type string `json:"type" yaml:"type"` // "file" or "s3"

	// file
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// s3
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Key             string `json:"key,omitempty" yaml:"key,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	AccessKeyID     string `json:"-" yaml:"-"`
	SecretAccessKey string `json:"-" yaml:"-"`
}

// JournalConfig selects the run journal backend.
type JournalConfig struct {
	Type     string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	RunsFile string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	DBPath   string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Environment overrides applied after the file is read. Credentials are
// env-only; the object identity variables let a scheduler retarget a run
// without editing the config file.
const (
	EnvAccessKeyID     = "ORACLE_S3_ACCESS_KEY_ID"
	EnvSecretAccessKey = "ORACLE_S3_SECRET_ACCESS_KEY"
	EnvEndpoint        = "ORACLE_S3_ENDPOINT"
	EnvBucket          = "ORACLE_S3_BUCKET"
	EnvKey             = "ORACLE_S3_KEY"
)

// Load returns the configuration for a run: Default() when path is empty,
// otherwise the parsed file, in both cases with env overrides applied and
// the result validated.
func Load(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile parses a config file, trying YAML first and falling back to
// JSON. The result is not yet validated; Load does that after env overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAccessKeyID); v != "" {
		c.Store.AccessKeyID = v
	}
	if v := os.Getenv(EnvSecretAccessKey); v != "" {
		c.Store.SecretAccessKey = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Store.Endpoint = v
	}
	if v := os.Getenv(EnvBucket); v != "" {
		c.Store.Bucket = v
	}
	if v := os.Getenv(EnvKey); v != "" {
		c.Store.Key = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Asset.Symbol == "" {
		return fmt.Errorf("asset.symbol is required")
	}
	if c.Asset.ReferenceCurrency == "" {
		return fmt.Errorf("asset.reference_currency is required")
	}
	if c.Asset.TargetCurrency == "" {
		return fmt.Errorf("asset.target_currency is required")
	}
	if _, err := record.ParseDate(c.Asset.InitialStartDate); err != nil {
		return fmt.Errorf("asset.initial_start_date: %w", err)
	}

	switch c.Store.Type {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for file store")
		}
	case "s3":
		if c.Store.Bucket == "" || c.Store.Key == "" {
			return fmt.Errorf("store.bucket and store.key required for s3 store")
		}
	default:
		return fmt.Errorf("store.type must be 'file' or 's3'")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.RunsFile == "" {
			return fmt.Errorf("journal.runs_file required for CSV journal")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for SQLite journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	return nil
}

// Default returns a configuration with sensible defaults: the XRP/USD/JPY
// series against a local file store, no journal.
func Default() *Config {
	return &Config{
		Asset: AssetConfig{
			Symbol:            "XRPUSDT",
			ReferenceCurrency: "USD",
			TargetCurrency:    "JPY",
			InitialStartDate:  "2022-10-01",
		},
		Store: StoreConfig{
			Type: "file",
			Path: "./cache/oracle_daily.json",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
