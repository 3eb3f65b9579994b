package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagTargets []string

var milestonesCmd = &cobra.Command{
	Use:   "milestones [SCENARIO]",
	Short: "Find when stored projections first reach net worth targets",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMilestones,
}

func init() {
	milestonesCmd.Flags().StringSliceVarP(&flagTargets, "target", "t", nil, "Net worth target (repeatable; default from settings)")
	rootCmd.AddCommand(milestonesCmd)
}

func parseTargets(raw []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(raw))
	for _, r := range raw {
		d, err := decimal.NewFromString(r)
		if err != nil {
			return nil, fmt.Errorf("invalid --target %q: %w", r, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("invalid --target %q: must be positive", r)
		}
		out = append(out, d)
	}
	return out, nil
}

func runMilestones(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	targets := sess.settings.Targets()
	if len(flagTargets) > 0 {
		if targets, err = parseTargets(flagTargets); err != nil {
			return err
		}
	}
	sc, err := resolveScenario(ctx, sess.store, sess.userID, scenarioArg(args))
	if err != nil {
		return err
	}

	milestones, err := sess.engine.CalculateMilestones(ctx, sess.userID, sc.ID, targets)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(milestones) == 0 {
		fmt.Fprintf(out, "No targets reached in the stored projections of %s.\n", sc.Name)
		return nil
	}
	t := output.Table{Title: "MILESTONES: " + sc.Name, Headers: []string{"Milestone", "Reached", "Years Away"}}
	for _, m := range milestones {
		t.Rows = append(t.Rows, []string{m.Description, m.Date.Format("2006-01"), m.YearsAway.StringFixed(1)})
	}
	fmt.Fprint(out, output.RenderTable(t))
	return nil
}
