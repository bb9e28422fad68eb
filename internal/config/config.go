package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ExtractModeLive     = "live"
	ExtractModeSnapshot = "snapshot"
)

type Config struct {
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Output   OutputConfig   `mapstructure:"output"`
	Images   ImagesConfig   `mapstructure:"images"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ScraperConfig struct {
	DelayMin          time.Duration `mapstructure:"delay_min"`
	DelayMax          time.Duration `mapstructure:"delay_max"`
	RotateEvery       int           `mapstructure:"rotate_every"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	DescriptionLimit  int           `mapstructure:"description_limit"`
	ExtractMode       string        `mapstructure:"extract_mode"`
}

type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless"`
	LaunchTimeout   time.Duration `mapstructure:"launch_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"`
	AcceptLanguages []string      `mapstructure:"accept_languages"`
	ViewportWidth   int           `mapstructure:"viewport_width"`
	ViewportHeight  int           `mapstructure:"viewport_height"`
}

type OutputConfig struct {
	Dir    string   `mapstructure:"dir"`
	Prefix string   `mapstructure:"prefix"`
	Header []string `mapstructure:"header"`
}

type ImagesConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Dir     string        `mapstructure:"dir"`
	Ext     string        `mapstructure:"ext"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig enables the Postgres mirror of result rows when URL is set.
type DatabaseConfig struct {
	URL   string `mapstructure:"url"`
	Table string `mapstructure:"table"`
}

// RedisConfig enables per-item stream events when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
}

// MetricsConfig enables a Prometheus textfile export at run end when Textfile is set.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads defaults, an optional YAML config file and environment
// variables. Keys map to env vars by upper-casing and replacing dots with
// underscores, e.g. scraper.delay_min -> SCRAPER_DELAY_MIN. An explicit path
// must exist; without one, config.yaml is looked up in . and ./config.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.delay_min", "3s")
	v.SetDefault("scraper.delay_max", "7s")
	v.SetDefault("scraper.rotate_every", 10)
	v.SetDefault("scraper.navigation_timeout", "90s")
	v.SetDefault("scraper.description_limit", 500)
	v.SetDefault("scraper.extract_mode", ExtractModeLive)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.launch_timeout", "120s")
	v.SetDefault("browser.user_agents", DefaultUserAgents())
	v.SetDefault("browser.accept_languages", []string{
		"en-US,en;q=0.9",
		"fi-FI,fi;q=0.9,en;q=0.8",
		"en-GB,en;q=0.9",
	})
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.prefix", "products")
	v.SetDefault("output.header", []string{"Название", "Цена", "Описание"})

	v.SetDefault("images.enabled", true)
	v.SetDefault("images.dir", "product_images")
	v.SetDefault("images.ext", ".jpg")
	v.SetDefault("images.timeout", "30s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.table", "scrape_results")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "stream:product_scrape")

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func (c *Config) Validate() error {
	if c.Scraper.DelayMin < 0 {
		return fmt.Errorf("scraper.delay_min cannot be negative")
	}

	if c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("scraper.delay_min cannot be greater than scraper.delay_max")
	}

	if c.Scraper.RotateEvery < 1 {
		return fmt.Errorf("scraper.rotate_every must be at least 1")
	}

	if c.Scraper.NavigationTimeout <= 0 {
		return fmt.Errorf("scraper.navigation_timeout must be positive")
	}

	if c.Scraper.DescriptionLimit < 1 {
		return fmt.Errorf("scraper.description_limit must be at least 1")
	}

	if c.Scraper.ExtractMode != ExtractModeLive && c.Scraper.ExtractMode != ExtractModeSnapshot {
		return fmt.Errorf("scraper.extract_mode must be %q or %q, got: %s",
			ExtractModeLive, ExtractModeSnapshot, c.Scraper.ExtractMode)
	}

	if len(c.Browser.UserAgents) == 0 {
		return fmt.Errorf("browser.user_agents must not be empty")
	}

	if len(c.Output.Header) != 3 {
		return fmt.Errorf("output.header must have exactly 3 columns, got %d", len(c.Output.Header))
	}

	if c.Output.Prefix == "" {
		return fmt.Errorf("output.prefix is required")
	}

	if c.Database.URL != "" && c.Database.Table == "" {
		return fmt.Errorf("database.table is required when database.url is set")
	}

	if c.Redis.Addr != "" && c.Redis.Stream == "" {
		return fmt.Errorf("redis.stream is required when redis.addr is set")
	}

	return nil
}

func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	}
}
