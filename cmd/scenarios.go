package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the user's scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenarios,
}

var scenarioDeleteCmd = &cobra.Command{
	Use:   "delete SCENARIO",
	Short: "Delete a scenario with its events and projections",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioDelete,
}

func init() {
	scenariosCmd.AddCommand(scenarioDeleteCmd)
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, _ []string) error {
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
		Title:   "SCENARIOS FOR " + sess.userID,
		Headers: []string{"Name", "ID", "Start", "End", "Baseline", "Rows", "Last Run"},
	}
	for _, sc := range scenarios {
		end := sc.ResolvedEndDate().Format("2006-01")
		if sc.EndCondition != "" {
			end += " or " + sc.EndCondition
		}
		lastRun := "never"
		if sc.LastRunAt != nil {
			lastRun = sc.LastRunAt.Local().Format("2006-01-02 15:04")
		}
		_, netRows, err := sess.store.ProjectionCounts(ctx, sc.ID)
		if err != nil {
			return err
		}
		baseline := ""
		if sc.IsBaseline {
			baseline = "yes"
		}
		t.Rows = append(t.Rows, []string{
			sc.Name, sc.ID, sc.StartDate.Format("2006-01"), end, baseline, fmt.Sprint(netRows), lastRun,
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderTable(t))
	return nil
}

func runScenarioDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	sc, err := resolveScenario(ctx, sess.store, sess.userID, args[0])
	if err != nil {
		return err
	}
	if err := sess.store.DeleteScenario(ctx, sess.userID, sc.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted scenario %s (%s)\n", sc.Name, sc.ID)
	return nil
}
