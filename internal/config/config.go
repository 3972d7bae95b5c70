package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "CONFLICTDASH"
	EnvConfig  = EnvPrefix + "_CONFIG"
	DatasetURL = "https://raw.githubusercontent.com/twogunzpadre/Incidents/main/WarConflicts.zip"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Dataset   DatasetConfig   `mapstructure:"dataset" yaml:"dataset"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

type DatasetConfig struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	File     string        `mapstructure:"file" yaml:"file"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
	ChartEntries    int           `mapstructure:"chart_entries" yaml:"chart_entries"`
}

// RateLimitConfig caps requests per client IP. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8050},
		Dataset: DatasetConfig{
			URL:      DatasetURL,
			File:     "WarConflicts.csv",
			Timeout:  2 * time.Minute,
			MaxBytes: 512 << 20,
		},
		Cache: CacheConfig{
			TTL:             30 * time.Minute,
			CleanupInterval: 10 * time.Minute,
			ChartEntries:    256,
		},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
		Log:       LogConfig{Mode: "prod"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("dataset.url", d.Dataset.URL)
	v.SetDefault("dataset.file", d.Dataset.File)
	v.SetDefault("dataset.timeout", d.Dataset.Timeout)
	v.SetDefault("dataset.max_bytes", d.Dataset.MaxBytes)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("cache.chart_entries", d.Cache.ChartEntries)
	v.SetDefault("ratelimit.rps", d.RateLimit.RPS)
	v.SetDefault("ratelimit.burst", d.RateLimit.Burst)
	v.SetDefault("log.mode", d.Log.Mode)
}

// Load resolves the configuration.
//
// Priority (highest first):
//  1. Environment variables (CONFLICTDASH_SERVER_PORT, CONFLICTDASH_DATASET_URL, ...)
//  2. YAML file named by CONFLICTDASH_CONFIG
//  3. Defaults
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(EnvConfig); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	if cfg.Dataset.URL == "" {
		return Config{}, fmt.Errorf("dataset.url is required")
	}
	return cfg, nil
}
