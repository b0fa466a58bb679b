// Package config loads pipeline configuration from defaults, an optional
// config.yaml and environment overrides, and validates the result. There is
// no ambient global configuration: callers load a Config once and pass it
// down explicitly.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// APIConfig configures the JSON API client.
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	MaxProducts  int           `mapstructure:"max_products" validate:"gte=0"`
	PageSize     int           `mapstructure:"page_size" validate:"gt=0"`
	RequestDelay time.Duration `mapstructure:"request_delay" validate:"gte=0"`
	RetryTimes   int           `mapstructure:"retry_times" validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// WebConfig configures the HTML catalog crawler.
type WebConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	MaxProducts  int           `mapstructure:"max_products" validate:"gte=0"`
	MaxPages     int           `mapstructure:"max_pages" validate:"gte=0"`
	RequestDelay time.Duration `mapstructure:"request_delay" validate:"gte=0"`
	RetryTimes   int           `mapstructure:"retry_times" validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgents   []string      `mapstructure:"user_agents" validate:"min=1,dive,required"`
}

// OutputConfig configures where exports land.
type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// DatabaseConfig configures the optional product store.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"required_if=Enabled true"`
}

// Config is the full pipeline configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Web      WebConfig      `mapstructure:"web"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:      "https://dummyjson.com",
			MaxProducts:  100,
			PageSize:     100,
			RequestDelay: 2 * time.Second,
			RetryTimes:   3,
			Timeout:      30 * time.Second,
		},
		Web: WebConfig{
			BaseURL:      "https://books.toscrape.com",
			MaxProducts:  100,
			MaxPages:     0,
			RequestDelay: 2 * time.Second,
			RetryTimes:   3,
			Timeout:      30 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
			},
		},
		Output: OutputConfig{
			Dir: "data/processed",
		},
		Database: DatabaseConfig{
			Enabled: false,
			URL:     "",
		},
	}
}

// Load reads config.yaml from configPath (when present) and environment
// variables prefixed PIPELINE_ over the defaults, then validates the
// result. A missing config file is not an error.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("PIPELINE")
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a configuration against its struct constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.max_products", cfg.API.MaxProducts)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.request_delay", cfg.API.RequestDelay)
	v.SetDefault("api.retry_times", cfg.API.RetryTimes)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("web.base_url", cfg.Web.BaseURL)
	v.SetDefault("web.max_products", cfg.Web.MaxProducts)
	v.SetDefault("web.max_pages", cfg.Web.MaxPages)
	v.SetDefault("web.request_delay", cfg.Web.RequestDelay)
	v.SetDefault("web.retry_times", cfg.Web.RetryTimes)
	v.SetDefault("web.timeout", cfg.Web.Timeout)
	v.SetDefault("web.user_agents", cfg.Web.UserAgents)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("database.enabled", cfg.Database.Enabled)
	v.SetDefault("database.url", cfg.Database.URL)
}
