package models

// MConfig Structure
type MConfig struct {
	Name        string            `yaml:"name"`
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	LogLevel    string            `yaml:"log_level"`
	CORSOrigins []string          `yaml:"cors_origins"`
	Storage     MStorageConfig    `yaml:"storage"`
	Network     MNetworkConfig    `yaml:"network"`
	DataSource  MDataSourceConfig `yaml:"data_source"`
	Scheduler   MSchedulerConfig  `yaml:"scheduler"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	DataRetentionDays int             `yaml:"data_retention_days"` // 0 keeps history forever
	DefaultPeriod     string          `yaml:"default_period"`
	Sources           []MSourceConfig `yaml:"sources"`
}

type MSourceConfig struct {
	Name   string `yaml:"name"`
	APIKey string `yaml:"api_key"` // Optional, may come from the environment
}

type MSchedulerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RefreshCron string `yaml:"refresh_cron"`
}
