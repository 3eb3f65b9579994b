package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/config"
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exampleCmd = &cobra.Command{
	Use:   "example [FILE]",
	Short: "Print (or write) an example household YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExample,
}

func init() {
	rootCmd.AddCommand(exampleCmd)
}

func runExample(cmd *cobra.Command, args []string) error {
	h := config.NewInputParser().CreateExampleHousehold()
	if len(args) == 1 {
		if err := output.SaveHousehold(h, args[0]); err != nil {
			return fmt.Errorf("writing example: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
		return nil
	}
	b, err := yaml.Marshal(h)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
