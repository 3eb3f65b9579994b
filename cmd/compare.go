package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/spf13/cobra"
)

var flagCompareRun bool

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare ending net worth across the user's scenarios",
	Args:  cobra.NoArgs,
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().BoolVar(&flagCompareRun, "run", false, "Re-run every scenario before comparing")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	scenarios, err := sess.store.ListScenarios(ctx, sess.userID)
	if err != nil {
		return err
	}

	t := output.Table{
		Title:   "SCENARIO COMPARISON",
		Headers: []string{"Scenario", "Start", "End", "Growth", "CAGR", "Months"},
	}
	reports := make([]*output.Report, 0, len(scenarios))
	for _, sc := range scenarios {
		if flagCompareRun {
			progressf("  Running %s...\n", sc.Name)
			if _, err := sess.engine.RunSimulation(ctx, sess.userID, sc.ID, true); err != nil {
				return fmt.Errorf("running scenario %q: %w", sc.Name, err)
			}
		}
		data, err := sess.engine.GetProjections(ctx, sess.userID, sc.ID, domain.ProjectionQuery{Granularity: domain.GranularityYearly})
		if err != nil {
			return err
		}
		reports = append(reports, &output.Report{Scenario: sc, Projections: data})

		if len(data.Periods) == 0 {
			t.Rows = append(t.Rows, []string{sc.Name, "-", "-", "-", "-", "not run"})
			continue
		}
		s := data.Summary
		t.Rows = append(t.Rows, []string{
			sc.Name,
			output.FormatCurrency(s.StartNetWorth),
			output.FormatCurrency(s.EndNetWorth),
			output.FormatCurrency(s.TotalGrowth),
			output.FormatRate(s.AnnualizedReturn),
			fmt.Sprint(s.TotalMonths),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderTable(t))
	rec := output.AnalyzeScenarios(reports)
	if rec.ScenarioName == "" {
		fmt.Fprintln(out, "No scenario has projections yet; run them first or pass --run.")
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Highest ending net worth: %s (%s)\n", rec.ScenarioName, output.FormatCurrency(rec.EndNetWorth))
	if rec.ScenarioName != rec.BaselineName {
		fmt.Fprintf(out, "Versus %s: %s / %s\n", rec.BaselineName,
			output.RenderChange(output.FormatCurrency(rec.NetWorthChange), rec.NetWorthChange.IsNegative()),
			output.FormatPercentage(rec.PercentageChange))
	}
	return nil
}
