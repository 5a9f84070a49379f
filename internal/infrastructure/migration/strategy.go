package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/saathi-inc/saathi/internal/shared/config"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

//go:embed scripts/goose/*.sql
var gooseScripts embed.FS

//go:embed scripts/migrate/*.sql
var migrateScripts embed.FS

const (
	StrategyGoose         = "goose"
	StrategyGolangMigrate = "golang-migrate"

	gooseDir   = "scripts/goose"
	migrateDir = "scripts/migrate"
)

// Strategy runs versioned schema migrations against a database.
type Strategy interface {
	// Up applies every pending migration.
	Up(db *gorm.DB) error
	// Down rolls back the given number of migrations.
	Down(db *gorm.DB, steps int) error
	// Version returns the current schema version.
	Version(db *gorm.DB) (int64, error)
	// Status logs the applied state of every migration.
	Status(db *gorm.DB) error
	// Create writes a new empty migration into dir.
	Create(dir, name string) error
	// Name returns the strategy name
	Name() string
}

// NewStrategy returns the named strategy for driver.
func NewStrategy(name, driver string, log logger.Interface) (Strategy, error) {
	switch name {
	case StrategyGoose, "":
		dialect, err := gooseDialect(driver)
		if err != nil {
			return nil, err
		}
		return &GooseStrategy{
			dialect: dialect,
			logger:  log.With("component", "migration.goose"),
		}, nil
	case StrategyGolangMigrate:
		if driver != config.DriverMySQL && driver != config.DriverPostgres {
			return nil, fmt.Errorf("golang-migrate strategy supports mysql and postgres, got %q", driver)
		}
		return &GolangMigrateStrategy{
			driver: driver,
			logger: log.With("component", "migration.golang-migrate"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown migration strategy %q", name)
	}
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case config.DriverMySQL, "":
		return "mysql", nil
	case config.DriverPostgres:
		return "postgres", nil
	case config.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// GooseStrategy applies the embedded goose scripts.
type GooseStrategy struct {
	dialect string
	logger  logger.Interface
}

func (s *GooseStrategy) prepare(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	goose.SetBaseFS(gooseScripts)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(s.dialect); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return sqlDB, nil
}

func (s *GooseStrategy) Up(db *gorm.DB) error {
	sqlDB, err := s.prepare(db)
	if err != nil {
		return err
	}

	from, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if err := goose.Up(sqlDB, gooseDir); err != nil {
		s.logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	to, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}

	s.logger.Infow("migration completed successfully",
		"from_version", from,
		"to_version", to)
	return nil
}

func (s *GooseStrategy) Down(db *gorm.DB, steps int) error {
	sqlDB, err := s.prepare(db)
	if err != nil {
		return err
	}

	for i := 0; i < steps; i++ {
		if err := goose.Down(sqlDB, gooseDir); err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				break
			}
			s.logger.Errorw("down migration failed", "error", err)
			return fmt.Errorf("failed to run down migration: %w", err)
		}
	}

	s.logger.Infow("down migration completed successfully", "steps", steps)
	return nil
}

func (s *GooseStrategy) Version(db *gorm.DB) (int64, error) {
	sqlDB, err := s.prepare(db)
	if err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func (s *GooseStrategy) Status(db *gorm.DB) error {
	sqlDB, err := s.prepare(db)
	if err != nil {
		return err
	}

	migrations, err := goose.CollectMigrations(gooseDir, 0, goose.MaxVersion)
	if err != nil {
		return fmt.Errorf("failed to collect migrations: %w", err)
	}
	current, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	for _, m := range migrations {
		s.logger.Infow("migration",
			"version", m.Version,
			"source", m.Source,
			"applied", m.Version <= current)
	}
	return nil
}

func (s *GooseStrategy) Create(dir, name string) error {
	goose.SetBaseFS(nil)
	defer goose.SetBaseFS(gooseScripts)

	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	s.logger.Infow("migration created successfully", "name", name, "dir", dir)
	return nil
}

func (s *GooseStrategy) Name() string {
	return StrategyGoose
}

// GolangMigrateStrategy applies the embedded golang-migrate scripts.
type GolangMigrateStrategy struct {
	driver string
	logger logger.Interface
}

func (s *GolangMigrateStrategy) instance(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sub, err := fs.Sub(migrateScripts, migrateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded scripts: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	switch s.driver {
	case config.DriverPostgres:
		driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", source, "postgres", driver)
	default:
		driver, err := migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", source, "mysql", driver)
	}
}

func (s *GolangMigrateStrategy) Up(db *gorm.DB) error {
	m, err := s.instance(db)
	if err != nil {
		return err
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	to, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get final migration version: %w", err)
	}

	s.logger.Infow("migration completed successfully",
		"from_version", from,
		"to_version", to)
	return nil
}

func (s *GolangMigrateStrategy) Down(db *gorm.DB, steps int) error {
	m, err := s.instance(db)
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.logger.Errorw("down migration failed", "error", err)
		return fmt.Errorf("failed to run down migrations: %w", err)
	}

	s.logger.Infow("down migration completed successfully", "steps", steps)
	return nil
}

func (s *GolangMigrateStrategy) Version(db *gorm.DB) (int64, error) {
	m, err := s.instance(db)
	if err != nil {
		return 0, err
	}

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(version), nil
}

func (s *GolangMigrateStrategy) Status(db *gorm.DB) error {
	m, err := s.instance(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	s.logger.Infow("migration status", "version", version, "dirty", dirty)
	return nil
}

func (s *GolangMigrateStrategy) Create(dir, name string) error {
	return fmt.Errorf("create is only supported by the %s strategy", StrategyGoose)
}

func (s *GolangMigrateStrategy) Name() string {
	return StrategyGolangMigrate
}
