package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/internal/output"
	"github.com/spf13/cobra"
)

// reportFlags are shared by every command that renders projections.
type reportFlags struct {
	format      string
	granularity string
	from        string
	to          string
	account     string
	outDir      string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: "+strings.Join(output.AvailableFormatterNames(), ", ")+", all (default from settings)")
	cmd.Flags().StringVarP(&f.granularity, "granularity", "g", "", "monthly, quarterly or yearly (default from settings)")
	cmd.Flags().StringVar(&f.from, "from", "", "First period to include (YYYY-MM or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last period to include (YYYY-MM or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.account, "account", "", "Only show this account ID in per-account detail")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "Write the report into this directory instead of stdout")
}

func parseMonthFlag(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: want YYYY-MM or YYYY-MM-DD", name, v)
}

// query builds a projection query, filling unset flags from settings defaults.
func (f *reportFlags) query(defaultGranularity string) (domain.ProjectionQuery, error) {
	g := f.granularity
	if g == "" {
		g = defaultGranularity
	}
	granularity, err := domain.ParseGranularity(g)
	if err != nil {
		return domain.ProjectionQuery{}, err
	}
	from, err := parseMonthFlag("from", f.from)
	if err != nil {
		return domain.ProjectionQuery{}, err
	}
	to, err := parseMonthFlag("to", f.to)
	if err != nil {
		return domain.ProjectionQuery{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return domain.ProjectionQuery{}, fmt.Errorf("--to %s is before --from %s", f.to, f.from)
	}
	return domain.ProjectionQuery{From: from, To: to, Granularity: granularity, AccountID: f.account}, nil
}

// render prints the report to the command's stdout, or writes files when --out is set.
func (f *reportFlags) render(cmd *cobra.Command, report *output.Report, defaultFormat string) error {
	format := f.format
	if format == "" {
		format = defaultFormat
	}
	if f.outDir != "" {
		files, err := output.GenerateReport(report, format, f.outDir)
		if err != nil {
			return err
		}
		for _, name := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", name)
		}
		return nil
	}

	formatter, err := output.LookupFormatter(format)
	if err != nil {
		return err
	}
	data, err := formatter.Format(report)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
