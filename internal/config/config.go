// Package config loads application configuration from config.yaml and
// PRICEWATCH_* environment variables via viper.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Stats   StatsConfig   `yaml:"stats" mapstructure:"stats"`
	Outlier OutlierConfig `yaml:"outlier" mapstructure:"outlier"`
	Round   RoundConfig   `yaml:"round" mapstructure:"round"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// FetchConfig configures the HTML fetcher.
type FetchConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	AcceptLanguage string  `yaml:"accept_language" mapstructure:"accept_language"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HostRPS        float64 `yaml:"host_rps" mapstructure:"host_rps"`
}

// RetryConfig configures the per-product retry policy.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	DelaySecs   int `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// StatsConfig configures the historical stats window.
type StatsConfig struct {
	Window     int `yaml:"window" mapstructure:"window"`
	MinSamples int `yaml:"min_samples" mapstructure:"min_samples"`
}

// OutlierConfig holds the outlier rejection factors. Both are configurable
// because price volatility differs by product category.
type OutlierConfig struct {
	UpFactor   float64 `yaml:"up_factor" mapstructure:"up_factor"`
	DownFactor float64 `yaml:"down_factor" mapstructure:"down_factor"`
}

// RoundConfig configures round pacing.
type RoundConfig struct {
	ProductDelaySecs int `yaml:"product_delay_secs" mapstructure:"product_delay_secs"`
	Concurrency      int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// Timeout returns the fetch timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// Delay returns the inter-attempt delay as a duration.
func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelaySecs) * time.Second
}

// ProductDelay returns the inter-product delay as a duration.
func (r RoundConfig) ProductDelay() time.Duration {
	return time.Duration(r.ProductDelaySecs) * time.Second
}

// Load reads configuration from config.yaml (optional) and the environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "pricewatch.db")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("fetch.accept_language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("fetch.max_body_bytes", 2*1024*1024)
	v.SetDefault("fetch.host_rps", 0.5)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay_secs", 4)
	v.SetDefault("stats.window", 30)
	v.SetDefault("stats.min_samples", 3)
	v.SetDefault("outlier.up_factor", 3.0)
	v.SetDefault("outlier.down_factor", 0.33)
	v.SetDefault("round.product_delay_secs", 2)
	v.SetDefault("round.concurrency", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger builds the global zap logger from LogConfig.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
