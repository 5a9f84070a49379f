package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Mode            string `mapstructure:"mode"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_seconds"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsDebug reports whether the server runs in gin debug mode.
func (s *ServerConfig) IsDebug() bool {
	return s.Mode == "debug"
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver            string `mapstructure:"driver"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	SSLMode           string `mapstructure:"ssl_mode"`
	SQLitePath        string `mapstructure:"sqlite_path"`
	MaxIdleConns      int    `mapstructure:"max_idle_conns"`
	MaxOpenConns      int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime   int    `mapstructure:"conn_max_lifetime"`
	MigrationStrategy string `mapstructure:"migration_strategy"`
}

// GetDSN returns the connection string for the configured driver.
func (d *DatabaseConfig) GetDSN() string {
	switch d.Driver {
	case DriverPostgres:
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			d.Host, d.Port, d.Username, d.Password, d.Database, sslMode)
	case DriverSQLite:
		if d.SQLitePath == "" {
			return "saathi.db"
		}
		return d.SQLitePath
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	}
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RenewalConfig struct {
	CountPolicy  string `mapstructure:"count_policy"`
	WindowPolicy string `mapstructure:"window_policy"`
}

type QuotaConfig struct {
	RetryAttempts          uint          `mapstructure:"retry_attempts"`
	RetryInitialIntervalMs int           `mapstructure:"retry_initial_interval_ms"`
	RetryMaxIntervalMs     int           `mapstructure:"retry_max_interval_ms"`
	Renewal                RenewalConfig `mapstructure:"renewal"`
	DefaultPlanID          uint          `mapstructure:"default_plan_id"`
	LedgerEnabled          bool          `mapstructure:"ledger_enabled"`
	LedgerRetentionDays    int           `mapstructure:"ledger_retention_days"`
	LedgerCleanupCron      string        `mapstructure:"ledger_cleanup_cron"`
	DisplayCacheTTLSeconds int           `mapstructure:"display_cache_ttl_seconds"`
}

func (q *QuotaConfig) RetryInitialInterval() time.Duration {
	return time.Duration(q.RetryInitialIntervalMs) * time.Millisecond
}

func (q *QuotaConfig) RetryMaxInterval() time.Duration {
	return time.Duration(q.RetryMaxIntervalMs) * time.Millisecond
}

func (q *QuotaConfig) DisplayCacheTTL() time.Duration {
	return time.Duration(q.DisplayCacheTTLSeconds) * time.Second
}

type CatalogConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// GalleryConfig locates the gallery collaborator's image table used for image counts.
type GalleryConfig struct {
	Table            string `mapstructure:"table"`
	SubscriberColumn string `mapstructure:"subscriber_column"`
	DeletedColumn    string `mapstructure:"deleted_column"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
// Empty username and password leave it unauthenticated.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Path     string `mapstructure:"path"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (m *MetricsConfig) GetPath() string {
	if m.Path == "" {
		return "/metrics"
	}
	return m.Path
}
