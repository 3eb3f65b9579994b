package output

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// ConsoleVerboseFormatter renders the detailed console report with styled tables.
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

func (c ConsoleVerboseFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, RenderTitle("NET WORTH PROJECTION: "+report.Scenario.Name))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, RenderSection("KEY ASSUMPTIONS"))
	for _, a := range GenerateAssumptions(report.Scenario.Assumptions) {
		fmt.Fprintf(&buf, "  • %s\n", a)
	}
	fmt.Fprintln(&buf)

	if run := report.Run; run != nil {
		writeRun(&buf, run)
	}

	data := report.Projections
	if data == nil || len(data.Periods) == 0 {
		fmt.Fprintln(&buf, mutedStyle.Render("  No projections recorded. Run the scenario first."))
		return buf.Bytes(), nil
	}

	writeSummary(&buf, data.Summary)
	writePeriods(&buf, data)
	writeAccounts(&buf, data.Periods[len(data.Periods)-1])
	writeMilestones(&buf, milestonesOf(report))
	return buf.Bytes(), nil
}

func writeRun(buf *bytes.Buffer, run *domain.RunResult) {
	fmt.Fprintln(buf, RenderSection("RUN"))
	fmt.Fprintln(buf, RenderKeyValue("Status", run.Status))
	if run.Status == domain.StatusCompleted {
		fmt.Fprintln(buf, RenderKeyValue("Periods", intToString(run.PeriodsCalculated)))
		fmt.Fprintln(buf, RenderKeyValue("Window", run.StartDate.Format("2006-01")+" to "+run.EndDate.Format("2006-01")))
		fmt.Fprintln(buf, RenderKeyValue("Execution time", fmt.Sprintf("%d ms", run.ExecutionTimeMs)))
	}
	for _, w := range run.Warnings {
		fmt.Fprintln(buf, RenderWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message)))
	}
	fmt.Fprintln(buf)
}

func writeSummary(buf *bytes.Buffer, s domain.ProjectionSummary) {
	fmt.Fprintln(buf, RenderSection("SUMMARY"))
	fmt.Fprintln(buf, RenderKeyValue("Starting net worth", FormatCurrency(s.StartNetWorth)))
	fmt.Fprintln(buf, RenderKeyValue("Ending net worth", FormatCurrency(s.EndNetWorth)))
	fmt.Fprintln(buf, RenderKeyValue("Total growth", RenderChange(FormatCurrency(s.TotalGrowth), s.TotalGrowth.IsNegative())))
	fmt.Fprintln(buf, RenderKeyValue("Annualized return", FormatRate(s.AnnualizedReturn)))
	fmt.Fprintln(buf, RenderKeyValue("Avg monthly growth", FormatRate(s.AvgMonthlyGrowthRate)))
	fmt.Fprintln(buf, RenderKeyValue("Months", intToString(s.TotalMonths)))
	fmt.Fprintln(buf)
}

func writePeriods(buf *bytes.Buffer, data *domain.ProjectionData) {
	t := Table{
		Title:   fmt.Sprintf("NET WORTH BY PERIOD (%s)", data.Granularity),
		Headers: []string{"Period", "Assets", "Liabilities", "Net Worth", "Change"},
	}
	trend := make([]float64, 0, len(data.Periods))
	prev := decimal.Zero
	for i, p := range data.Periods {
		change := "-"
		if i > 0 {
			change = FormatCurrency(p.NetWorth.Sub(prev))
		}
		t.Rows = append(t.Rows, []string{
			p.Period,
			FormatCurrency(p.TotalAssets),
			FormatCurrency(p.TotalLiabilities),
			FormatCurrency(p.NetWorth),
			change,
		})
		trend = append(trend, p.NetWorth.InexactFloat64())
		prev = p.NetWorth
	}
	fmt.Fprint(buf, RenderTable(t))
	if len(trend) > 1 {
		fmt.Fprintf(buf, "  Trend %s\n", RenderSparkline(trend))
	}
	fmt.Fprintln(buf)
}

func writeAccounts(buf *bytes.Buffer, last domain.PeriodProjection) {
	if len(last.Accounts) > 0 {
		t := Table{
			Title:   "ACCOUNTS AT " + last.Period,
			Headers: []string{"Account", "Balance", "Income", "Expenses", "Interest"},
		}
		for _, a := range last.Accounts {
			t.Rows = append(t.Rows, []string{
				a.AccountName,
				FormatCurrency(a.Balance),
				FormatCurrency(a.PeriodIncome),
				FormatCurrency(a.PeriodExpenses),
				FormatCurrency(a.PeriodInterest),
			})
		}
		fmt.Fprint(buf, RenderTable(t))
		fmt.Fprintln(buf)
	}

	if len(last.BreakdownByType) > 0 {
		types := make([]string, 0, len(last.BreakdownByType))
		for k := range last.BreakdownByType {
			types = append(types, k)
		}
		sort.Strings(types)
		fmt.Fprintln(buf, RenderSection("BY ACCOUNT TYPE"))
		for _, k := range types {
			fmt.Fprintln(buf, RenderKeyValue(k, FormatCurrency(last.BreakdownByType[k])))
		}
		fmt.Fprintln(buf)
	}
}

func writeMilestones(buf *bytes.Buffer, milestones []domain.MilestoneResult) {
	if len(milestones) == 0 {
		fmt.Fprintln(buf, mutedStyle.Render("  No net worth milestones reached."))
		return
	}
	t := Table{Title: "MILESTONES", Headers: []string{"Milestone", "Reached", "Years Away"}}
	for _, m := range milestones {
		t.Rows = append(t.Rows, []string{m.Description, m.Date.Format("2006-01"), m.YearsAway.StringFixed(1)})
	}
	fmt.Fprint(buf, RenderTable(t))
}
