package output

import (
	json "github.com/goccy/go-json"
	"github.com/lifeplan/projection-engine/internal/domain"
)

// jsonReport is the serialized shape: the run result (if any) beside the projection view.
type jsonReport struct {
	ScenarioID   string                 `json:"scenario_id"`
	ScenarioName string                 `json:"scenario_name"`
	Assumptions  domain.Assumptions     `json:"assumptions"`
	Run          *domain.RunResult      `json:"run,omitempty"`
	Projections  *domain.ProjectionData `json:"projections,omitempty"`
}

// JSONFormatter serializes the report as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(report *Report) ([]byte, error) {
	return json.MarshalIndent(jsonReport{
		ScenarioID:   report.Scenario.ID,
		ScenarioName: report.Scenario.Name,
		Assumptions:  report.Scenario.Assumptions,
		Run:          report.Run,
		Projections:  report.Projections,
	}, "", "  ")
}
