package output

import (
	"bytes"
	"fmt"

	"github.com/lifeplan/projection-engine/internal/domain"
)

// ConsoleFormatter provides a concise console style summary via the formatter interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PROJECTION SUMMARY: %s\n", report.Scenario.Name)
	fmt.Fprintln(&buf, "================================")

	if run := report.Run; run != nil {
		fmt.Fprintf(&buf, "Run: %s, %d periods (%s to %s)\n", run.Status, run.PeriodsCalculated,
			run.StartDate.Format("2006-01"), run.EndDate.Format("2006-01"))
	}

	data := report.Projections
	if data == nil || len(data.Periods) == 0 {
		fmt.Fprintln(&buf, "No projections recorded.")
		return buf.Bytes(), nil
	}

	s := data.Summary
	fmt.Fprintf(&buf, "Start=%s End=%s Growth=%s CAGR=%s Months=%d\n",
		FormatCurrency(s.StartNetWorth),
		FormatCurrency(s.EndNetWorth),
		FormatCurrency(s.TotalGrowth),
		FormatRate(s.AnnualizedReturn),
		s.TotalMonths,
	)
	for _, m := range milestonesOf(report) {
		fmt.Fprintf(&buf, "  %s: %s (%s years)\n", m.Description, m.Date.Format("2006-01"), m.YearsAway.StringFixed(1))
	}
	return buf.Bytes(), nil
}

// milestonesOf prefers the run's milestones and falls back to those derived from stored rows.
func milestonesOf(report *Report) []domain.MilestoneResult {
	if report.Run != nil && len(report.Run.KeyMilestones) > 0 {
		return report.Run.KeyMilestones
	}
	if report.Projections != nil {
		return report.Projections.Milestones
	}
	return nil
}
