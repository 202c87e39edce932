// Package config provides YAML-based configuration loading for the Bank of
// Trust assistant.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from config.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Lending    LendingConfig    `yaml:"lending"`
	Admin      AdminConfig      `yaml:"admin"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DBConfig selects and configures the storage backend. Driver is "sqlite"
// (default, Path-based) or "mysql" (Host/Port/Database).
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ClassifierConfig holds the fallback classifier settings.
type ClassifierConfig struct {
	CorpusPath    string  `yaml:"corpus_path"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxFeatures   int     `yaml:"max_features"`
	RetrainCron   string  `yaml:"retrain_cron"` // optional 5-field cron expression
}

// LendingConfig holds the eligibility gates and pricing constants for the
// loan flows. Zero values are replaced with the bank's defaults.
type LendingConfig struct {
	MinAge          int     `yaml:"min_age"`
	MinIncome       int64   `yaml:"min_income"`
	MinCreditScore  int     `yaml:"min_credit_score"`
	LimitMultiplier int64   `yaml:"limit_multiplier"`
	BaseAnnualRate  float64 `yaml:"base_annual_rate"`
}

// AdminConfig holds the admin panel credentials. Environment variables
// BANKBOT_ADMIN_USER and BANKBOT_ADMIN_PASSWORD override the file values.
type AdminConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Path == "" {
		c.DB.Path = "bank.db"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Database == "" {
		c.DB.Database = "bankbot"
	}
	if c.Classifier.CorpusPath == "" {
		c.Classifier.CorpusPath = "training_data.csv"
	}
	if c.Classifier.MinConfidence == 0 {
		c.Classifier.MinConfidence = 0.55
	}
	if c.Classifier.MaxFeatures == 0 {
		c.Classifier.MaxFeatures = 18000
	}
	if c.Lending.MinAge == 0 {
		c.Lending.MinAge = 18
	}
	if c.Lending.MinIncome == 0 {
		c.Lending.MinIncome = 15000
	}
	if c.Lending.MinCreditScore == 0 {
		c.Lending.MinCreditScore = 700
	}
	if c.Lending.LimitMultiplier == 0 {
		c.Lending.LimitMultiplier = 20
	}
	if c.Lending.BaseAnnualRate == 0 {
		c.Lending.BaseAnnualRate = 0.085
	}
	if v := os.Getenv("BANKBOT_ADMIN_USER"); v != "" {
		c.Admin.User = v
	}
	if v := os.Getenv("BANKBOT_ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("config: unknown db driver %q (want sqlite or mysql)", c.DB.Driver)
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("config: min_confidence %v out of range [0,1]", c.Classifier.MinConfidence)
	}
	if c.Lending.MinCreditScore < 300 || c.Lending.MinCreditScore > 900 {
		return fmt.Errorf("config: min_credit_score %d out of range [300,900]", c.Lending.MinCreditScore)
	}
	return nil
}
