// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"time"
)

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// GinMode is passed to gin.SetMode: debug, release or test.
	GinMode string `koanf:"gin_mode"`

	// DatabaseURL selects Postgres when set; otherwise SQLite at DataPath is used.
	DatabaseURL string `koanf:"database_url"`
	DataPath    string `koanf:"data_path"`

	JWTSecret       string        `koanf:"jwt_secret"`
	APIMasterSecret string        `koanf:"api_master_secret"`
	AdminUsername   string        `koanf:"admin_username"`
	AdminPassword   string        `koanf:"admin_password"`
	TokenTTL        time.Duration `koanf:"token_ttl"`

	// ForecastDays is the default horizon of the resource availability forecast.
	ForecastDays int `koanf:"forecast_days"`

	// WorkloadDays is the default horizon of the per-assignee workload forecast.
	WorkloadDays int `koanf:"workload_days"`

	// UtilizationWindowDays is how far ahead utilization averages load.
	UtilizationWindowDays int `koanf:"utilization_window_days"`

	// Workers bounds how many people are evaluated concurrently.
	Workers int `koanf:"workers"`

	// DefaultHoursPerDay is given to members created by tracker sync.
	DefaultHoursPerDay float64 `koanf:"default_hours_per_day"`

	// EmailDomain is used to derive addresses for members created by tracker sync.
	EmailDomain string `koanf:"email_domain"`

	// StoryPointHours maps story point values to estimated hours.
	StoryPointHours map[string]float64 `koanf:"story_point_hours"`

	MetricsPath string `koanf:"metrics_path"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:                  ":8000",
		LogLevel:              "info",
		GinMode:               "release",
		DataPath:              "capacity.db",
		AdminUsername:         "admin",
		AdminPassword:         "admin123",
		TokenTTL:              24 * time.Hour,
		ForecastDays:          30,
		WorkloadDays:          14,
		UtilizationWindowDays: 30,
		Workers:               runtime.NumCPU(),
		DefaultHoursPerDay:    8,
		EmailDomain:           "example.com",
		StoryPointHours: map[string]float64{
			"1":  4,
			"2":  8,
			"3":  16,
			"5":  32,
			"8":  64,
			"13": 104,
		},
		MetricsPath: "/metrics",
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	}
	if c.ForecastDays <= 0 || c.WorkloadDays <= 0 || c.UtilizationWindowDays <= 0 {
		return fmt.Errorf("day horizons must be positive: %w", ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d: %w", c.Workers, ErrInvalidConfig)
	}
	if c.DefaultHoursPerDay <= 0 {
		return fmt.Errorf("default_hours_per_day must be positive: %w", ErrInvalidConfig)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive: %w", ErrInvalidConfig)
	}
	if _, err := c.StoryPointTable(); err != nil {
		return err
	}
	return nil
}

// StoryPointTable returns StoryPointHours keyed by integer points.
func (c *Config) StoryPointTable() (map[int]float64, error) {
	table := make(map[int]float64, len(c.StoryPointHours))
	for k, v := range c.StoryPointHours {
		points, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("story_point_hours key %q: %w", k, ErrInvalidConfig)
		}
		table[points] = v
	}
	return table, nil
}
