// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Sheets  SheetsConfig  `mapstructure:"sheets"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScraperConfig governs the scrape pipeline.
type ScraperConfig struct {
	// Driver selects the page automation backend: "browser" (chromedp) or
	// "http" (colly).
	Driver            string `mapstructure:"driver"`
	BaseURL           string `mapstructure:"base_url"`
	UserAgent         string `mapstructure:"user_agent"`
	Headless          bool   `mapstructure:"headless"`
	MaxPages          int    `mapstructure:"max_pages"`
	MaxItemsPerPage   int    `mapstructure:"max_items_per_page"`
	ItemDelaySeconds  int    `mapstructure:"item_delay_seconds"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
}

// SheetsConfig holds the spreadsheet export credentials. Both values come
// from the environment in deployment; CredentialsJSON is the service-account
// key material as issued by the Google console.
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Driver backends accepted by ScraperConfig.Driver.
const (
	DriverBrowser = "browser"
	DriverHTTP    = "http"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The export credentials keep their historical bare names.
	bindEnv(v, "sheets.spreadsheet_id", "SPREADSHEET_ID")
	bindEnv(v, "sheets.credentials_json", "GOOGLE_API_CREDENTIALS")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper, key, env string) {
	// BindEnv only errors on an empty key.
	_ = v.BindEnv(key, env)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scraper.driver", DriverBrowser)
	v.SetDefault("scraper.base_url", "https://tabelog.com/rstLst/?srchTg=1&svps=2")
	v.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.max_pages", 5)
	v.SetDefault("scraper.max_items_per_page", 20)
	v.SetDefault("scraper.item_delay_seconds", 1)
	v.SetDefault("scraper.nav_timeout_seconds", 60)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Scraper.Driver {
	case DriverBrowser, DriverHTTP:
	default:
		return fmt.Errorf("scraper.driver must be %q or %q", DriverBrowser, DriverHTTP)
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if c.Scraper.MaxPages <= 0 {
		return fmt.Errorf("scraper.max_pages must be > 0")
	}
	if c.Scraper.MaxItemsPerPage <= 0 {
		return fmt.Errorf("scraper.max_items_per_page must be > 0")
	}
	if c.Scraper.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.nav_timeout_seconds must be > 0")
	}
	return nil
}

// ItemDelay converts the configured per-item delay into a duration.
func (c Config) ItemDelay() time.Duration {
	return time.Duration(c.Scraper.ItemDelaySeconds) * time.Second
}

// NavTimeout converts the configured navigation deadline into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Scraper.NavTimeoutSeconds) * time.Second
}
