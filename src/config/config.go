package config

import (
	"fmt"
	"os"
	"strings"

	"stock-market-api/src/helpers"
	"stock-market-api/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file. An optional .env
// file in the working directory supplies provider API keys, so secrets stay
// out of the checked-in YAML.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Overlay environment (.env is optional, ignore a missing file)
	_ = godotenv.Load()
	config.applyEnv()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, &helpers.ConfigurationError{StockAPIError: helpers.StockAPIError{
			Message: "config validation failed",
			Cause:   err,
		}}
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.DataSource.DefaultPeriod == "" {
		c.DataSource.DefaultPeriod = "1mo"
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 15
	}
	if c.Scheduler.RefreshCron == "" {
		// Weekdays shortly after the US close; per-symbol calendars still
		// gate the actual fetches.
		c.Scheduler.RefreshCron = "0 30 22 * * 1-5"
	}
}

// -----------------------------------------------------------------------------

// applyEnv lets environment variables supply or override provider API keys.
// The variable name follows the source name, e.g. ALPHA_VANTAGE_API_KEY for
// the "alpha-vantage" source.
func (c *Config) applyEnv() {
	for i := range c.DataSource.Sources {
		src := &c.DataSource.Sources[i]
		envName := strings.ToUpper(strings.ReplaceAll(src.Name, "-", "_")) + "_API_KEY"
		if v := os.Getenv(envName); v != "" {
			src.APIKey = v
		}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if c.DataSource.DataRetentionDays < 0 {
		return fmt.Errorf("data retention days cannot be negative")
	}
	if len(c.DataSource.Sources) == 0 {
		return fmt.Errorf("at least one data source must be configured")
	}
	for i, src := range c.DataSource.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d must have a name", i)
		}
	}

	if c.Scheduler.Enabled && c.Scheduler.RefreshCron == "" {
		return fmt.Errorf("scheduler refresh cron cannot be empty when enabled")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
