package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Scraper.Driver != DriverBrowser {
		t.Fatalf("default driver = %q, want %q", cfg.Scraper.Driver, DriverBrowser)
	}
	if cfg.Scraper.MaxPages != 5 || cfg.Scraper.MaxItemsPerPage != 20 {
		t.Fatalf("default page policy wrong: %+v", cfg.Scraper)
	}
	if got := cfg.ItemDelay(); got != time.Second {
		t.Fatalf("default item delay = %v, want 1s", got)
	}
	if got := cfg.NavTimeout(); got != 60*time.Second {
		t.Fatalf("default nav timeout = %v, want 60s", got)
	}
	if !cfg.Logging.Development {
		t.Fatal("logging defaults to development mode")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
scraper:
  driver: http
  base_url: https://tabelog.example/rstLst/
  headless: false
  max_pages: 2
  max_items_per_page: 5
  item_delay_seconds: 0
  nav_timeout_seconds: 30
sheets:
  spreadsheet_id: sheet-123
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Scraper.Driver != DriverHTTP || cfg.Scraper.Headless {
		t.Fatalf("scraper overrides not applied: %+v", cfg.Scraper)
	}
	if cfg.Scraper.MaxPages != 2 || cfg.Scraper.MaxItemsPerPage != 5 {
		t.Fatalf("page policy overrides not applied: %+v", cfg.Scraper)
	}
	if cfg.ItemDelay() != 0 {
		t.Fatalf("item delay = %v, want 0", cfg.ItemDelay())
	}
	if cfg.Sheets.SpreadsheetID != "sheet-123" {
		t.Fatalf("spreadsheet id = %q", cfg.Sheets.SpreadsheetID)
	}
	if cfg.Logging.Development {
		t.Fatal("logging override not applied")
	}
}

func TestLoadCredentialEnvBindings(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "env-sheet")
	t.Setenv("GOOGLE_API_CREDENTIALS", `{"type":"service_account"}`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sheets.SpreadsheetID != "env-sheet" {
		t.Fatalf("spreadsheet id from env = %q", cfg.Sheets.SpreadsheetID)
	}
	if cfg.Sheets.CredentialsJSON == "" {
		t.Fatal("credentials not bound from env")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Scraper.Driver = "selenium" }},
		{"empty base url", func(c *Config) { c.Scraper.BaseURL = "" }},
		{"zero max pages", func(c *Config) { c.Scraper.MaxPages = 0 }},
		{"zero items per page", func(c *Config) { c.Scraper.MaxItemsPerPage = 0 }},
		{"zero nav timeout", func(c *Config) { c.Scraper.NavTimeoutSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
