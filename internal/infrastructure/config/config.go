package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	sharedConfig "github.com/saathi-inc/saathi/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Quota    sharedConfig.QuotaConfig    `mapstructure:"quota"`
	Catalog  sharedConfig.CatalogConfig  `mapstructure:"catalog"`
	Gallery  sharedConfig.GalleryConfig  `mapstructure:"gallery"`
	Metrics  sharedConfig.MetricsConfig  `mapstructure:"metrics"`
}

const envPrefix = "SAATHI"

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// DefaultSearchPaths are the directories searched for config.yaml.
var DefaultSearchPaths = []string{"./configs", "../configs", "../../configs"}

// Load loads configuration from an optional .env file, config.yaml and
// SAATHI_ prefixed environment variables, in increasing precedence.
func Load(env string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := LoadFrom(viper.New(), env, DefaultSearchPaths...)
	if err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = cfg
	appConfigMu.Unlock()

	return cfg, nil
}

// LoadFrom reads configuration into v from the given search paths.
// A missing config file is not an error; defaults and env still apply.
func LoadFrom(v *viper.Viper, env string, searchPaths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case sharedConfig.DriverMySQL, sharedConfig.DriverPostgres, sharedConfig.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Database.MigrationStrategy {
	case "goose", "golang-migrate":
	default:
		return fmt.Errorf("unsupported migration strategy %q", c.Database.MigrationStrategy)
	}

	if c.Quota.RetryAttempts == 0 {
		return fmt.Errorf("quota.retry_attempts must be at least 1")
	}

	if _, err := c.RenewalPolicy(); err != nil {
		return err
	}

	return nil
}

// RenewalPolicy returns the configured merge-mode renewal policy.
func (c *Config) RenewalPolicy() (quota.RenewalPolicy, error) {
	return quota.ParseRenewalPolicy(c.Quota.Renewal.CountPolicy, c.Quota.Renewal.WindowPolicy)
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)

	// Database defaults
	v.SetDefault("database.driver", sharedConfig.DriverMySQL)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "saathi_dev")
	v.SetDefault("database.sqlite_path", "saathi.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.migration_strategy", "goose")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Quota defaults
	v.SetDefault("quota.retry_attempts", 3)
	v.SetDefault("quota.retry_initial_interval_ms", 20)
	v.SetDefault("quota.retry_max_interval_ms", 200)
	v.SetDefault("quota.renewal.count_policy", string(quota.CountPolicyMerge))
	v.SetDefault("quota.renewal.window_policy", string(quota.WindowPolicyFromNow))
	v.SetDefault("quota.default_plan_id", 1)
	v.SetDefault("quota.ledger_enabled", true)
	v.SetDefault("quota.ledger_retention_days", 0)
	v.SetDefault("quota.ledger_cleanup_cron", "0 5 * * *")
	v.SetDefault("quota.display_cache_ttl_seconds", 60)

	// Catalog defaults
	v.SetDefault("catalog.cache_size", 128)

	// Gallery defaults
	v.SetDefault("gallery.table", "gallery_images")
	v.SetDefault("gallery.subscriber_column", "subscriber_id")
	v.SetDefault("gallery.deleted_column", "deleted_at")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
