package output

import (
	"os"

	"github.com/lifeplan/projection-engine/internal/domain"
	"gopkg.in/yaml.v3"
)

// GenerateReport renders a report with the named formatter and writes it into dir.
// The format "all" writes the verbose console report and both CSV exports.
func GenerateReport(report *Report, format, dir string) ([]string, error) {
	var formatters []Formatter
	if NormalizeFormatName(format) == "all" {
		formatters = []Formatter{ConsoleVerboseFormatter{}, CSVSummarizer{}, CSVDetailedExporter{}}
	} else {
		f, err := LookupFormatter(format)
		if err != nil {
			return nil, err
		}
		formatters = []Formatter{f}
	}

	files := make([]string, 0, len(formatters))
	for _, f := range formatters {
		name, err := WriteFormatted(f, report, dir)
		if err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

// SaveHousehold writes a household back out as YAML.
func SaveHousehold(h *domain.Household, filename string) error {
	b, err := yaml.Marshal(h)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
