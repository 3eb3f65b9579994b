package cmd

import (
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/spf13/cobra"
)

var projectionsReport reportFlags

var projectionsCmd = &cobra.Command{
	Use:     "projections [SCENARIO]",
	Aliases: []string{"show"},
	Short:   "Show stored projections for a scenario",
	Long: "Read the stored projections of a scenario without re-running it, aggregated\n" +
		"monthly, quarterly or yearly and optionally limited to a date window.",
	Args: cobra.MaximumNArgs(1),
	RunE: runProjections,
}

func init() {
	projectionsReport.register(projectionsCmd)
	rootCmd.AddCommand(projectionsCmd)
}

func runProjections(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	q, err := projectionsReport.query(sess.settings.Output.Granularity)
	if err != nil {
		return err
	}
	sc, err := resolveScenario(ctx, sess.store, sess.userID, scenarioArg(args))
	if err != nil {
		return err
	}
	data, err := sess.engine.GetProjections(ctx, sess.userID, sc.ID, q)
	if err != nil {
		return err
	}
	return projectionsReport.render(cmd, &output.Report{Scenario: *sc, Projections: data}, sess.settings.Output.Format)
}
