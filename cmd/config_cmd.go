package cmd

import (
	"fmt"

	"github.com/lifeplan/projection-engine/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func settingsPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	return config.Path()
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "  Config file: %s\n", settingsPath())
	if flagConfigPath != "" || config.Exists() {
		fmt.Fprintln(out, "  Status: loaded")
	} else {
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [General]")
	fmt.Fprintf(out, "    Database:     %s\n", cfg.General.DatabasePath)
	if cfg.General.DefaultUser != "" {
		fmt.Fprintf(out, "    Default user: %s\n", cfg.General.DefaultUser)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Simulation]")
	fmt.Fprintf(out, "    Milestone targets: %v\n", cfg.Simulation.MilestoneTargets)
	fmt.Fprintf(out, "    Fallback tax rate: %.2f\n", cfg.Simulation.FallbackTaxRate)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Output]")
	fmt.Fprintf(out, "    Format:      %s\n", cfg.Output.Format)
	fmt.Fprintf(out, "    Granularity: %s\n", cfg.Output.Granularity)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := settingsPath()
	if err := config.SaveTo(path, config.DefaultSettings()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
