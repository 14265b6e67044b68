/*
Package config loads server configuration.

SOURCES (later wins):
  1. Defaults below
  2. YAML file: the -config flag, or ./boothrent.yaml when present
  3. Environment: BOOTHRENT_ prefix, dots become underscores
     (BOOTHRENT_SERVER_PORT, BOOTHRENT_PAYMENTS_SUCCESS_RATE)

The -port and -db flags in cmd/server override the loaded values.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "BOOTHRENT"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Payments PaymentsConfig `mapstructure:"payments"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Overdue  OverdueConfig  `mapstructure:"overdue"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"` // ":memory:" for a throwaway database
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PaymentsConfig struct {
	SuccessRate float64       `mapstructure:"success_rate"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	RatePerSec  float64       `mapstructure:"rate_per_sec"`
	Burst       int           `mapstructure:"burst"`
}

type ScheduleConfig struct {
	PreviewCount int `mapstructure:"preview_count"`
	MaxCount     int `mapstructure:"max_count"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// OverdueConfig drives the background sweep that flags stylists whose last
// payment is older than GraceDays.
type OverdueConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	GraceDays int           `mapstructure:"grace_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("database.path", "boothrent.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("payments.success_rate", 0.9)
	v.SetDefault("payments.min_delay", "500ms")
	v.SetDefault("payments.max_delay", "1500ms")
	v.SetDefault("payments.rate_per_sec", 5)
	v.SetDefault("payments.burst", 10)
	v.SetDefault("schedule.preview_count", 5)
	v.SetDefault("schedule.max_count", 100)
	v.SetDefault("seed.enabled", true)
	v.SetDefault("overdue.enabled", false)
	v.SetDefault("overdue.interval", "1h")
	v.SetDefault("overdue.grace_days", 7)
}

// Load reads defaults, the optional file, and the environment. An explicit
// path that cannot be read is an error; a missing ./boothrent.yaml is not.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("boothrent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	case c.Database.Path == "":
		return errors.New("database.path is required")
	case c.Payments.SuccessRate < 0 || c.Payments.SuccessRate > 1:
		return fmt.Errorf("payments.success_rate must be between 0 and 1, got %g", c.Payments.SuccessRate)
	case c.Payments.MinDelay < 0 || c.Payments.MaxDelay < c.Payments.MinDelay:
		return fmt.Errorf("payments delays must satisfy 0 <= min_delay <= max_delay, got %s..%s", c.Payments.MinDelay, c.Payments.MaxDelay)
	case c.Schedule.PreviewCount < 1:
		return fmt.Errorf("schedule.preview_count must be at least 1, got %d", c.Schedule.PreviewCount)
	case c.Schedule.MaxCount < c.Schedule.PreviewCount:
		return fmt.Errorf("schedule.max_count (%d) must be >= schedule.preview_count (%d)", c.Schedule.MaxCount, c.Schedule.PreviewCount)
	case c.Overdue.Enabled && (c.Overdue.Interval <= 0 || c.Overdue.GraceDays < 1):
		return errors.New("overdue.interval must be positive and overdue.grace_days at least 1")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
