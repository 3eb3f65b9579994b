package output

import (
	"bytes"
	"encoding/csv"
)

// CSVSummarizer implements the period summary CSV output (one row per period).
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Scenario", "Period", "PeriodDate", "TotalAssets", "TotalLiabilities", "NetWorth"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if report.Projections != nil {
		for _, p := range report.Projections.Periods {
			row := []string{
				report.Scenario.Name,
				p.Period,
				p.PeriodDate.Format("2006-01-02"),
				p.TotalAssets.StringFixed(2),
				p.TotalLiabilities.StringFixed(2),
				p.NetWorth.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
