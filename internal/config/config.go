package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Rules     RulesConfig     `yaml:"rules"`
	Penalty   PenaltyConfig   `yaml:"penalty"`
	Store     StoreConfig     `yaml:"store"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RulesConfig contains validation thresholds
type RulesConfig struct {
	MaxBatchItems            int      `yaml:"max_batch_items"`
	MaxBatchQuantity         int      `yaml:"max_batch_quantity"`
	WarnBatchQuantity        int      `yaml:"warn_batch_quantity"`
	SnapshotStalenessMinutes int      `yaml:"snapshot_staleness_minutes"`
	OpenHour                 int      `yaml:"open_hour"`
	CloseHour                int      `yaml:"close_hour"`
	ClosedDays               []string `yaml:"closed_days"` // weekday names, e.g. "Sunday"
}

// SnapshotStaleness returns the staleness threshold as a duration.
func (r RulesConfig) SnapshotStaleness() time.Duration {
	return time.Duration(r.SnapshotStalenessMinutes) * time.Minute
}

// ClosedWeekdays parses the configured weekday names. Unknown names are skipped.
func (r RulesConfig) ClosedWeekdays() []time.Weekday {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	var out []time.Weekday
	for _, n := range r.ClosedDays {
		if d, ok := names[strings.ToLower(strings.TrimSpace(n))]; ok {
			out = append(out, d)
		}
	}
	return out
}

// PenaltyConfig contains the monetary penalty policy (minor currency units)
type PenaltyConfig struct {
	DamagedLightFeeCents int64 `yaml:"damaged_light_fee_cents"`
	DamagedHeavyFeeCents int64 `yaml:"damaged_heavy_fee_cents"`
	// Replacement basis used for lost items when the product's acquisition
	// cost is unknown. Must be set explicitly; there is no default.
	LostItemFallbackCents int64 `yaml:"lost_item_fallback_cents"`
}

// StoreConfig contains transaction-store settings
type StoreConfig struct {
	CommitTimeoutSeconds int `yaml:"commit_timeout_seconds"`
}

// CommitTimeout returns the commit timeout as a duration.
func (s StoreConfig) CommitTimeout() time.Duration {
	return time.Duration(s.CommitTimeoutSeconds) * time.Second
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	OverdueScan string `yaml:"overdue_scan"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if val := os.Getenv("LOST_ITEM_FALLBACK_CENTS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Penalty.LostItemFallbackCents)
	}
}

// Validate checks the configuration and fills documented defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Rule defaults
	if c.Rules.MaxBatchItems == 0 {
		c.Rules.MaxBatchItems = 50
	}
	if c.Rules.MaxBatchQuantity == 0 {
		c.Rules.MaxBatchQuantity = 1000
	}
	if c.Rules.WarnBatchQuantity == 0 {
		c.Rules.WarnBatchQuantity = 100
	}
	if c.Rules.SnapshotStalenessMinutes == 0 {
		c.Rules.SnapshotStalenessMinutes = 5
	}

	if c.Penalty.LostItemFallbackCents <= 0 {
		return fmt.Errorf("penalty.lost_item_fallback_cents must be configured")
	}

	if c.Store.CommitTimeoutSeconds == 0 {
		c.Store.CommitTimeoutSeconds = 5
	}

	if c.Scheduler.OverdueScan == "" {
		c.Scheduler.OverdueScan = "0 0 2 * * *" // 2 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
