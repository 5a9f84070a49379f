package plans

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/seeds"
	"github.com/saathi-inc/saathi/internal/infrastructure/repository"
	"github.com/saathi-inc/saathi/internal/interfaces/cli/common"
	"github.com/saathi-inc/saathi/internal/shared/constants"
)

var (
	env      string
	seedFile string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Plan catalog tools",
		Long:  `Seed and inspect the subscription plan catalog.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")

	cmd.AddCommand(
		newSeedCommand(),
		newListCommand(),
	)

	return cmd
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the plan catalog",
		Long:  `Upsert plans from a YAML file, or the built-in catalog when --file is omitted.`,
		RunE:  runSeed,
	}

	cmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to a plan catalog YAML file")

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog plans",
		RunE:  runList,
	}
}

func loadSeedPlans() ([]*quota.Plan, error) {
	if seedFile == "" {
		return seeds.DefaultPlans()
	}
	return seeds.LoadPlansFile(seedFile)
}

func runSeed(cmd *cobra.Command, args []string) error {
	plans, err := loadSeedPlans()
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}

	e, err := common.Setup(env)
	if err != nil {
		return err
	}
	defer e.Close()

	repo := repository.NewPlanRepository(e.DB, e.Logger)
	if err := seeds.SeedPlans(cmd.Context(), repo, plans); err != nil {
		e.Logger.Errorw("failed to seed plans", "error", err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d plans\n", len(plans))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := common.Setup(env)
	if err != nil {
		return err
	}
	defer e.Close()

	repo := repository.NewPlanRepository(e.DB, e.Logger)
	plans, err := repo.ListPlans(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}

	return printPlans(cmd, dto.ToPlanResponses(plans))
}

func printPlans(cmd *cobra.Command, plans []dto.PlanResponse) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tINTEREST\tCONTACT VIEW\tIMAGE\tVALIDITY")
	for _, p := range plans {
		validity := "lifetime"
		if p.ValidityDays != nil {
			validity = fmt.Sprintf("%dd", *p.ValidityDays)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name,
			allowanceString(p.InterestLimit),
			allowanceString(p.ContactViewLimit),
			allowanceString(p.ImageLimit),
			validity)
	}
	return w.Flush()
}

func allowanceString(a dto.Allowance) string {
	if a.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", a.Value)
}
