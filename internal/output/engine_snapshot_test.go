package output

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/lifeplan/projection-engine/internal/calculation"
	"github.com/lifeplan/projection-engine/internal/config"
	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/internal/store"
)

// TestEngineSnapshot runs the example household end to end twice and checks that
// every formatter renders identical bytes for identical inputs.
func TestEngineSnapshot(t *testing.T) {
	calculation.SetNowFunc(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })
	defer calculation.SetNowFunc(time.Now)

	render := func() map[string][]byte {
		h := config.NewInputParser().CreateExampleHousehold()
		ctx := context.Background()
		repo := store.NewMemoryStore()
		if err := repo.SaveHousehold(ctx, h); err != nil {
			t.Fatalf("save household: %v", err)
		}
		eng := calculation.NewSimulationEngine(repo)
		sc := h.Scenarios[0]
		run, err := eng.RunSimulation(ctx, h.User.ID, sc.ID, true)
		if err != nil {
			t.Fatalf("run scenario: %v", err)
		}
		run.ExecutionTimeMs = 0
		data, err := eng.GetProjections(ctx, h.User.ID, sc.ID, domain.ProjectionQuery{Granularity: domain.GranularityYearly})
		if err != nil {
			t.Fatalf("get projections: %v", err)
		}
		if len(data.Periods) == 0 {
			t.Fatalf("expected yearly periods")
		}

		out := make(map[string][]byte)
		for _, name := range AvailableFormatterNames() {
			b, err := GetFormatterByName(name).Format(&Report{Scenario: sc, Run: run, Projections: data})
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			out[name] = b
		}
		return out
	}

	first, second := render(), render()
	for name, b := range first {
		if !bytes.Equal(b, second[name]) {
			t.Fatalf("%s output is not deterministic", name)
		}
	}
}
