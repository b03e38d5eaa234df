package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the reconciler service configuration
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	ChainAPI       ChainAPIConfig       `mapstructure:"chain_api"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Shutdown       ShutdownConfig       `mapstructure:"shutdown"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig contains Redis connection settings shared by the cache,
// the transaction broker and the socket notifier.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// ChainAPIConfig contains settings for the external blockchain API service
type ChainAPIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	IPFSGatewayURL  string        `mapstructure:"ipfs_gateway_url"`
	NetworkChainID  int64         `mapstructure:"network_chain_id"`
	WrappedMaticHex string        `mapstructure:"wrapped_matic_address"`
}

// BrokerConfig contains transaction broker settings
type BrokerConfig struct {
	Stream        string        `mapstructure:"stream"`
	ConsumerGroup string        `mapstructure:"consumer_group"`
	ConsumerName  string        `mapstructure:"consumer_name"`
	BlockTimeout  time.Duration `mapstructure:"block_timeout"`
	BatchSize     int64         `mapstructure:"batch_size"`
}

// ReconciliationConfig contains settings for the pending-transaction sweep
type ReconciliationConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	PendingWarnAge time.Duration `mapstructure:"pending_warn_age"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ShutdownConfig contains graceful shutdown settings
type ShutdownConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8082)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "reconciler")

	// Redis defaults
	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	// Chain API defaults
	viper.SetDefault("chain_api.request_timeout", "30s")
	viper.SetDefault("chain_api.ipfs_gateway_url", "https://ipfs.io")
	viper.SetDefault("chain_api.network_chain_id", 137)

	// Broker defaults
	viper.SetDefault("broker.stream", "reconciler:transactions")
	viper.SetDefault("broker.consumer_group", "reconciler")
	viper.SetDefault("broker.consumer_name", "reconciler-1")
	viper.SetDefault("broker.block_timeout", "5s")
	viper.SetDefault("broker.batch_size", 16)

	// Reconciliation defaults
	viper.SetDefault("reconciliation.interval", "5m")
	viper.SetDefault("reconciliation.pending_warn_age", "1h")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")

	// Shutdown defaults
	viper.SetDefault("shutdown.timeout", "30s")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Redis.URL == "" {
		return fmt.Errorf("redis.url is required")
	}
	if config.ChainAPI.BaseURL == "" {
		return fmt.Errorf("chain_api.base_url is required")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
