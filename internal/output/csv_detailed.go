package output

import (
	"bytes"
	"encoding/csv"
)

// CSVDetailedExporter provides per-account detail for every period.
type CSVDetailedExporter struct{}

func (c CSVDetailedExporter) Name() string { return "detailed-csv" }

func (c CSVDetailedExporter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Scenario", "Period", "AccountID", "AccountName", "Balance", "BalanceHomeCurrency", "PeriodIncome", "PeriodExpenses", "PeriodInterest"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if report.Projections != nil {
		for _, p := range report.Projections.Periods {
			for _, a := range p.Accounts {
				row := []string{
					report.Scenario.Name,
					p.Period,
					a.AccountID,
					a.AccountName,
					a.Balance.StringFixed(2),
					a.BalanceHomeCurrency.StringFixed(2),
					a.PeriodIncome.StringFixed(2),
					a.PeriodExpenses.StringFixed(2),
					a.PeriodInterest.StringFixed(2),
				}
				if err := w.Write(row); err != nil {
					return nil, err
				}
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
