package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/saathi-inc/saathi/internal/interfaces/cli/migrate"
	"github.com/saathi-inc/saathi/internal/interfaces/cli/plans"
	"github.com/saathi-inc/saathi/internal/interfaces/cli/server"
	"github.com/saathi-inc/saathi/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "saathi",
		Short:        "Saathi - subscription entitlement and quota engine",
		Long:         `Saathi enforces per-subscriber plan quotas, applies plan renewals and serves entitlement snapshots.`,
		Version:      version.String(),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		plans.NewCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
