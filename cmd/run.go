package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/spf13/cobra"
)

var (
	flagRunAppend bool
	runReport     reportFlags
)

var runCmd = &cobra.Command{
	Use:   "run [SCENARIO]",
	Short: "Simulate a scenario and store its projections",
	Long: "Simulate a scenario (ID or name; the baseline when omitted) month by month and\n" +
		"store the results. Previous projections are replaced unless --append is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&flagRunAppend, "append", false, "Keep earlier projection rows instead of replacing them")
	runReport.register(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	q, err := runReport.query(sess.settings.Output.Granularity)
	if err != nil {
		return err
	}
	sc, err := resolveScenario(ctx, sess.store, sess.userID, scenarioArg(args))
	if err != nil {
		return err
	}

	progressf("  Simulating %s...\n", sc.Name)
	res, err := sess.engine.RunSimulation(ctx, sess.userID, sc.ID, !flagRunAppend)
	if err != nil {
		return fmt.Errorf("running scenario %q: %w", sc.Name, err)
	}
	if res.Status == domain.StatusSkipped {
		progressf("  %s is already running; skipped\n", sc.Name)
	}

	data, err := sess.engine.GetProjections(ctx, sess.userID, sc.ID, q)
	if err != nil {
		return err
	}
	return runReport.render(cmd, &output.Report{Scenario: *sc, Run: res, Projections: data}, sess.settings.Output.Format)
}
