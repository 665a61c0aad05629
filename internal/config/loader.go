package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yesmonga/karting-sub000/internal/parser"
)

const (
	// EnvPrefix prefixes every environment override (KARTING_DATABASE_HOST)
	EnvPrefix = "KARTING"

	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	opts := parser.DefaultOptions()

	v.SetDefault("app.name", "karting")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "karting")
	v.SetDefault("database.user", "karting")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("data_source.base_dir", "")
	v.SetDefault("data_source.timeout", 30*time.Second)
	v.SetDefault("data_source.max_retries", 3)
	v.SetDefault("data_source.rate_limit", 5.0)
	v.SetDefault("data_source.circuit_breaker_max", 5)

	v.SetDefault("parser.min_plausible_lap_ms", opts.MinPlausibleLapMs)
	v.SetDefault("parser.max_plausible_lap_ms", opts.MaxPlausibleLapMs)
	v.SetDefault("parser.min_realistic_lap_ms", opts.MinRealisticLapMs)
	v.SetDefault("parser.max_realistic_lap_ms", opts.MaxRealisticLapMs)
	v.SetDefault("parser.cumulative_sector_ratio", opts.CumulativeSectorRatio)
	v.SetDefault("parser.ambiguity_tolerance_ms", opts.AmbiguityToleranceMs)

	v.SetDefault("live.feed_url", "")
	v.SetDefault("live.relay_url", "")
	v.SetDefault("live.replay_file", "")
	v.SetDefault("live.replay_interval", 500*time.Millisecond)
	v.SetDefault("live.poll_interval", 3*time.Second)
	v.SetDefault("live.snapshot_interval", 5*time.Second)
	v.SetDefault("live.reconnect_max", 30*time.Second)
	v.SetDefault("live.read_timeout", 60*time.Second)

	v.SetDefault("api.address", ":8080")
	v.SetDefault("api.cache_ttl", 10*time.Second)
	v.SetDefault("api.max_upload_size", 32<<20)
	v.SetDefault("api.read_timeout", 15*time.Second)
	v.SetDefault("api.write_timeout", 30*time.Second)
	v.SetDefault("api.cors_allowed_origins", []string{})

	v.SetDefault("ballast.min_weight_kg", 80.0)
	v.SetDefault("ballast.step_kg", 2.5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("health.address", ":8081")
	v.SetDefault("health.grpc_address", "")

	v.SetDefault("secrets.enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")

	v.SetDefault("features.mock_mode", false)
	v.SetDefault("features.persist_live", true)
	v.SetDefault("features.import_dry_run", false)
	v.SetDefault("features.cache_responses", true)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Database.MockMode = cfg.Features.MockMode
	return cfg, nil
}

// ReloadFromEnv reloads the configuration from the file named by
// KARTING_CONFIG_PATH, when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(EnvPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}
