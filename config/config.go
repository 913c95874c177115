// Package config loads and validates the Argus configuration from file and
// environment via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Sigma       SigmaConfig       `mapstructure:"sigma"`
	Rules       RulesConfig       `mapstructure:"rules"`
}

// LoggingConfig controls the zap logger built in main.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// MetricsConfig controls the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// CorrelationConfig holds the correlation engine tunables.
type CorrelationConfig struct {
	EventBufferSize   int           `mapstructure:"event_buffer_size" validate:"min=100"`
	BatchChunkSize    int           `mapstructure:"batch_chunk_size" validate:"min=1"`
	BatchConcurrency  int           `mapstructure:"batch_concurrency" validate:"min=1,max=256"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval" validate:"min=1s"`
	MatchHistoryLimit int           `mapstructure:"match_history_limit" validate:"min=100"`
}

// SigmaConfig holds the sigma engine tunables.
type SigmaConfig struct {
	VerdictCacheSize int `mapstructure:"verdict_cache_size" validate:"min=16"`
}

// RulesConfig points at rule files loaded on startup. Both are optional;
// rules can also be registered programmatically.
type RulesConfig struct {
	CorrelationFile string `mapstructure:"correlation_file"`
	SigmaDir        string `mapstructure:"sigma_dir"`
}

var configValidator = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_addr", ":9109")
	v.SetDefault("correlation.event_buffer_size", 100000)
	v.SetDefault("correlation.batch_chunk_size", 1000)
	v.SetDefault("correlation.batch_concurrency", 10)
	v.SetDefault("correlation.cleanup_interval", time.Minute)
	v.SetDefault("correlation.match_history_limit", 10000)
	v.SetDefault("sigma.verdict_cache_size", 10000)
}

// Load reads configuration from the given file (optional) plus ARGUS_*
// environment overrides and returns the validated config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ARGUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := configValidator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are hardcoded and must validate; failing here is a bug.
		panic(fmt.Sprintf("bug: default configuration is invalid: %v", err))
	}
	return cfg
}
