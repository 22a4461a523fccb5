package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/tier"
)

// EnvPrefix prefixes environment overrides, e.g. OLIST_TIERS_DATA_DIR.
const EnvPrefix = "OLIST_TIERS"

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Tiers    []TierConfig   `mapstructure:"tiers"`
	Export   ExportConfig   `mapstructure:"export"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig selects the raw data source
type DataConfig struct {
	Source string `mapstructure:"source"` // csv, mysql or sqlite
	Dir    string `mapstructure:"dir"`
	DSN    string `mapstructure:"dsn"`
}

// AnalysisConfig holds analysis parameters
type AnalysisConfig struct {
	LookbackMonths      int     `mapstructure:"lookback_months"`
	MinMonths           int     `mapstructure:"min_months"`
	TrendThreshold      float64 `mapstructure:"trend_threshold"`
	VolatilityThreshold float64 `mapstructure:"volatility_threshold"`
	Workers             int     `mapstructure:"workers"`
}

// TierConfig overrides the thresholds of one tier
type TierConfig struct {
	Name      string  `mapstructure:"name"`
	MinGMV    float64 `mapstructure:"min_gmv"`
	MinOrders int     `mapstructure:"min_orders"`
	MinRating float64 `mapstructure:"min_rating"`
}

// ExportConfig holds profile export configuration
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.source", "csv")
	v.SetDefault("data.dir", "./data/raw")
	v.SetDefault("data.dsn", "")

	// Analysis defaults
	v.SetDefault("analysis.lookback_months", 3)
	v.SetDefault("analysis.min_months", 3)
	v.SetDefault("analysis.trend_threshold", 0.1)
	v.SetDefault("analysis.volatility_threshold", 0.5)
	v.SetDefault("analysis.workers", 4)

	// Export defaults
	v.SetDefault("export.dir", "./data")
	v.SetDefault("export.format", "csv")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate data config
	switch c.Data.Source {
	case "csv":
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir is required when data.source is csv")
		}
	case "mysql", "sqlite":
		if c.Data.DSN == "" {
			return fmt.Errorf("data.dsn is required when data.source is %s", c.Data.Source)
		}
	default:
		return fmt.Errorf("data.source must be one of: csv, mysql, sqlite")
	}

	// Validate analysis config
	if c.Analysis.LookbackMonths < 0 {
		return fmt.Errorf("analysis.lookback_months must not be negative")
	}
	if c.Analysis.MinMonths < 1 {
		return fmt.Errorf("analysis.min_months must be at least 1")
	}
	if c.Analysis.TrendThreshold < 0 {
		return fmt.Errorf("analysis.trend_threshold must not be negative")
	}
	if c.Analysis.VolatilityThreshold < 0 {
		return fmt.Errorf("analysis.volatility_threshold must not be negative")
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1")
	}

	// Validate tiers
	if _, err := c.TierTable(); err != nil {
		return err
	}

	// Validate export config
	validExportFormats := map[string]bool{"csv": true, "xlsx": true}
	if !validExportFormats[c.Export.Format] {
		return fmt.Errorf("export.format must be one of: csv, xlsx")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.MaxRetries < 0 {
		return fmt.Errorf("telegram.max_retries must not be negative")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// TierTable returns the canonical thresholds with the tiers section applied.
func (c *Config) TierTable() (tier.Table, error) {
	table := tier.DefaultTable
	seen := make(map[models.Tier]bool, len(c.Tiers))
	for i, tc := range c.Tiers {
		t, err := models.ParseTier(tc.Name)
		if err != nil {
			return tier.Table{}, fmt.Errorf("tiers[%d].name: %w", i, err)
		}
		if seen[t] {
			return tier.Table{}, fmt.Errorf("tiers[%d].name: %s is configured twice", i, t)
		}
		seen[t] = true
		table[t] = tier.Threshold{MinGMV: tc.MinGMV, MinOrders: tc.MinOrders, MinRating: tc.MinRating}
	}
	if err := table.Validate(); err != nil {
		return tier.Table{}, fmt.Errorf("tiers: %w", err)
	}
	return table, nil
}
