package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/config"
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/spf13/cobra"
)

var flagImportRun bool

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import or update a household from YAML",
	Long: "Validate a household YAML file and store it. Re-importing the same file updates\n" +
		"records in place, so earlier projections of unchanged scenarios are kept.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportRun, "run", false, "Run every imported scenario after storing it")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	h, err := config.NewInputParser().LoadFromFile(args[0])
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.store.SaveHousehold(ctx, h); err != nil {
		return fmt.Errorf("storing household: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, output.RenderKeyValue("User", fmt.Sprintf("%s (%s)", h.User.Name, h.User.ID)))
	fmt.Fprintln(out, output.RenderKeyValue("Accounts", fmt.Sprint(len(h.Accounts))))
	fmt.Fprintln(out, output.RenderKeyValue("Income sources", fmt.Sprint(len(h.IncomeSources))))
	fmt.Fprintln(out, output.RenderKeyValue("Expenses", fmt.Sprint(len(h.Expenses))))
	fmt.Fprintln(out, output.RenderKeyValue("Contributions", fmt.Sprint(len(h.Contributions))))
	fmt.Fprintln(out, output.RenderKeyValue("Tax profiles", fmt.Sprint(len(h.TaxProfiles))))
	fmt.Fprintln(out, output.RenderKeyValue("Scenarios", fmt.Sprint(len(h.Scenarios))))

	if !flagImportRun {
		return nil
	}
	for _, sc := range h.Scenarios {
		progressf("  Running %s...\n", sc.Name)
		res, err := sess.engine.RunSimulation(ctx, h.User.ID, sc.ID, true)
		if err != nil {
			return fmt.Errorf("running scenario %q: %w", sc.Name, err)
		}
		fmt.Fprintln(out, output.RenderKeyValue(sc.Name, fmt.Sprintf("%s, %d periods", res.Status, res.PeriodsCalculated)))
	}
	return nil
}
