// Package config loads engine configuration from file and environment.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	dberror "recsrc/pkg/error"
)

// Config holds all configuration for the engine and its CLI.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ExecutorConfig bounds concurrent executions of one compiled plan.
type ExecutorConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

// MetricsConfig controls prometheus naming and the optional endpoint.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	Addr      string `mapstructure:"addr"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Executor: ExecutorConfig{
			Parallelism: 4,
		},
		Metrics: MetricsConfig{
			Namespace: "recsrc",
		},
	}
}

// Load reads configuration from configPath (optional) and RECSRC_* env vars.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := Default()
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("executor.parallelism", cfg.Executor.Parallelism)
	v.SetDefault("metrics.namespace", cfg.Metrics.Namespace)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)

	v.SetEnvPrefix("RECSRC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else {
		v.SetConfigName("recsrc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.recsrc")

		// A missing config file is fine; defaults apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are sensible
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return badConfig("invalid log level: %s", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return badConfig("invalid log format: %s", c.Log.Format)
	}

	if c.Executor.Parallelism < 1 {
		return badConfig("executor.parallelism must be at least 1, got %d", c.Executor.Parallelism)
	}

	if c.Metrics.Namespace == "" {
		return badConfig("metrics.namespace must not be empty")
	}
	return nil
}

func badConfig(format string, args ...any) error {
	return dberror.Newf(dberror.ErrCategorySystem, dberror.CodeBadConfig, format, args...).
		WithOperation("Validate", "Config")
}
