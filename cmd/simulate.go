package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/config"
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/lifeplan/projection-engine/internal/store"
	"github.com/spf13/cobra"
)

var simulateReport reportFlags

var simulateCmd = &cobra.Command{
	Use:   "simulate FILE [SCENARIO]",
	Short: "Simulate a household file without touching the database",
	Long: "Load a household YAML file into memory, simulate one scenario (the baseline when\n" +
		"omitted) and print the report. Nothing is stored.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runSimulate,
}

func init() {
	simulateReport.register(simulateCmd)
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	q, err := simulateReport.query(settings.Output.Granularity)
	if err != nil {
		return err
	}

	h, err := config.NewInputParser().LoadFromFile(args[0])
	if err != nil {
		return err
	}
	repo := store.NewMemoryStore()
	if err := repo.SaveHousehold(ctx, h); err != nil {
		return err
	}

	sc, err := resolveScenario(ctx, repo, h.User.ID, scenarioArg(args[1:]))
	if err != nil {
		return err
	}
	eng := newEngine(repo, settings)
	res, err := eng.RunSimulation(ctx, h.User.ID, sc.ID, true)
	if err != nil {
		return fmt.Errorf("running scenario %q: %w", sc.Name, err)
	}
	data, err := eng.GetProjections(ctx, h.User.ID, sc.ID, q)
	if err != nil {
		return err
	}
	return simulateReport.render(cmd, &output.Report{Scenario: *sc, Run: res, Projections: data}, settings.Output.Format)
}
