package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Scraper.DelayMin)
	assert.Equal(t, 7*time.Second, cfg.Scraper.DelayMax)
	assert.Equal(t, 10, cfg.Scraper.RotateEvery)
	assert.Equal(t, 90*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, 500, cfg.Scraper.DescriptionLimit)
	assert.Equal(t, ExtractModeLive, cfg.Scraper.ExtractMode)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 120*time.Second, cfg.Browser.LaunchTimeout)
	assert.Equal(t, DefaultUserAgents(), cfg.Browser.UserAgents)
	assert.NotEmpty(t, cfg.Browser.AcceptLanguages)

	assert.Equal(t, "products", cfg.Output.Prefix)
	assert.Equal(t, []string{"Название", "Цена", "Описание"}, cfg.Output.Header)

	assert.True(t, cfg.Images.Enabled)
	assert.Equal(t, "product_images", cfg.Images.Dir)
	assert.Equal(t, ".jpg", cfg.Images.Ext)

	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Metrics.Textfile)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCRAPER_DELAY_MIN", "1s")
	t.Setenv("SCRAPER_DELAY_MAX", "2s")
	t.Setenv("SCRAPER_ROTATE_EVERY", "5")
	t.Setenv("SCRAPER_EXTRACT_MODE", "snapshot")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("OUTPUT_HEADER", "Title,Price,Description")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Scraper.DelayMin)
	assert.Equal(t, 2*time.Second, cfg.Scraper.DelayMax)
	assert.Equal(t, 5, cfg.Scraper.RotateEvery)
	assert.Equal(t, ExtractModeSnapshot, cfg.Scraper.ExtractMode)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"Title", "Price", "Description"}, cfg.Output.Header)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	content := `
scraper:
  delay_min: 500ms
  delay_max: 1s
  navigation_timeout: 30s
output:
  dir: results
images:
  enabled: false
metrics:
  textfile: /tmp/scraper.prom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.DelayMin)
	assert.Equal(t, time.Second, cfg.Scraper.DelayMax)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.False(t, cfg.Images.Enabled)
	assert.Equal(t, "/tmp/scraper.prom", cfg.Metrics.Textfile)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Scraper.RotateEvery)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Scraper: ScraperConfig{
				DelayMin:          3 * time.Second,
				DelayMax:          7 * time.Second,
				RotateEvery:       10,
				NavigationTimeout: 90 * time.Second,
				DescriptionLimit:  500,
				ExtractMode:       ExtractModeLive,
			},
			Browser: BrowserConfig{UserAgents: DefaultUserAgents()},
			Output:  OutputConfig{Prefix: "products", Header: []string{"a", "b", "c"}},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"min above max", func(c *Config) { c.Scraper.DelayMin = 10 * time.Second }},
		{"negative min", func(c *Config) { c.Scraper.DelayMin = -time.Second }},
		{"zero rotation", func(c *Config) { c.Scraper.RotateEvery = 0 }},
		{"zero navigation timeout", func(c *Config) { c.Scraper.NavigationTimeout = 0 }},
		{"zero description limit", func(c *Config) { c.Scraper.DescriptionLimit = 0 }},
		{"unknown extract mode", func(c *Config) { c.Scraper.ExtractMode = "html" }},
		{"no user agents", func(c *Config) { c.Browser.UserAgents = nil }},
		{"header too short", func(c *Config) { c.Output.Header = []string{"a", "b"} }},
		{"empty prefix", func(c *Config) { c.Output.Prefix = "" }},
		{"database without table", func(c *Config) { c.Database.URL = "postgres://localhost/db" }},
		{"redis without stream", func(c *Config) { c.Redis.Addr = "localhost:6379" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
