// Package config provides configuration management for the karting race-data service.
package config

import (
	"fmt"
	"time"

	"github.com/yesmonga/karting-sub000/internal/parser"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	DataSource DataSourceConfig `mapstructure:"data_source"`
	Parser     parser.Options   `mapstructure:"parser" validate:"required"`
	Live       LiveConfig       `mapstructure:"live" validate:"required"`
	API        APIConfig        `mapstructure:"api" validate:"required"`
	Ballast    BallastConfig    `mapstructure:"ballast" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Features   FeaturesConfig   `mapstructure:"features"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required_without=MockMode"`
	Port               int    `mapstructure:"port" validate:"min=0,max=65535"`
	Name               string `mapstructure:"name" validate:"required_without=MockMode"`
	User               string `mapstructure:"user" validate:"required_without=MockMode"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`

	// Set from features.mock_mode, no database is needed then
	MockMode bool `mapstructure:"-"`
}

// DataSourceConfig configures how result documents are fetched
type DataSourceConfig struct {
	BaseDir           string        `mapstructure:"base_dir"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RateLimit         float64       `mapstructure:"rate_limit" validate:"gte=0"`
	CircuitBreakerMax int           `mapstructure:"circuit_breaker_max" validate:"gte=0"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// LiveConfig configures the live timing feed
type LiveConfig struct {
	FeedURL          string        `mapstructure:"feed_url" validate:"omitempty,feedurl"`
	RelayURL         string        `mapstructure:"relay_url" validate:"omitempty,url"`
	ReplayFile       string        `mapstructure:"replay_file"`
	ReplayInterval   time.Duration `mapstructure:"replay_interval" validate:"gte=0"`
	PollInterval     time.Duration `mapstructure:"poll_interval" validate:"required,min=1s,max=1m"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval" validate:"required,min=1s"`
	ReconnectMax     time.Duration `mapstructure:"reconnect_max" validate:"required,min=1s"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout" validate:"required,min=1s"`
}

// APIConfig configures the HTTP API
type APIConfig struct {
	Address       string        `mapstructure:"address" validate:"required"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	MaxUploadSize int64         `mapstructure:"max_upload_size" validate:"required,gt=0"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout" validate:"required"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" validate:"required"`
	// CORSAllowedOrigins lists the dashboard origins, empty allows any
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// BallastConfig holds the regulation weights used for ballast computation
type BallastConfig struct {
	MinWeightKg float64 `mapstructure:"min_weight_kg" validate:"required,gt=0,lte=200"`
	StepKg      float64 `mapstructure:"step_kg" validate:"required,gt=0,lte=10"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// HealthConfig configures the health endpoints
type HealthConfig struct {
	Address     string `mapstructure:"address"`
	GRPCAddress string `mapstructure:"grpc_address"`
}

// SecretsConfig points at the AWS Secrets Manager secret overlaying credentials
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	// MockMode replaces the database with in-memory repositories and the
	// live feed with a capture replay
	MockMode      bool `mapstructure:"mock_mode"`
	PersistLive   bool `mapstructure:"persist_live"`
	ImportDryRun  bool `mapstructure:"import_dry_run"`
	CacheResponse bool `mapstructure:"cache_responses"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
