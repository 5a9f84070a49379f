package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saathi-inc/saathi/internal/infrastructure/migration"
	"github.com/saathi-inc/saathi/internal/interfaces/cli/common"
	"github.com/saathi-inc/saathi/internal/shared/constants"
)

const defaultScriptsDir = "./internal/infrastructure/migration/scripts/goose"

var (
	env        string
	name       string
	scriptsDir string
	steps      int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current migration version and status of the database.`,
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new migration",
		Long:  `Create a new goose SQL migration file in the source tree.`,
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.Flags().StringVar(&scriptsDir, "dir", defaultScriptsDir, "Directory to write the migration into")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func initEnv() (*common.Env, migration.Strategy, error) {
	e, err := common.Setup(env)
	if err != nil {
		return nil, nil, err
	}

	strategy, err := migration.NewStrategy(e.Config.Database.MigrationStrategy, e.Config.Database.Driver, e.Logger)
	if err != nil {
		e.Close()
		return nil, nil, fmt.Errorf("failed to create migration strategy: %w", err)
	}

	return e, strategy, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	e, strategy, err := initEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	e.Logger.Infow("running up migrations", "environment", env, "strategy", strategy.Name())

	if err := strategy.Up(e.DB); err != nil {
		e.Logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	e.Logger.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}

	e, strategy, err := initEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	e.Logger.Infow("running down migrations", "environment", env, "steps", steps)

	if err := strategy.Down(e.DB, steps); err != nil {
		e.Logger.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	e.Logger.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, strategy, err := initEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	version, err := strategy.Version(e.DB)
	if err != nil {
		e.Logger.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", env)
	fmt.Fprintf(out, "  Strategy:        %s\n", strategy.Name())
	fmt.Fprintf(out, "  Current Version: %d\n", version)

	if err := strategy.Status(e.DB); err != nil {
		e.Logger.Errorw("failed to get detailed status", "error", err)
		return fmt.Errorf("failed to get detailed status: %w", err)
	}

	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	e, strategy, err := initEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := strategy.Create(scriptsDir, name); err != nil {
		e.Logger.Errorw("failed to create migration", "error", err)
		return fmt.Errorf("failed to create migration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migration '%s' created in %s\n", name, scriptsDir)
	return nil
}
