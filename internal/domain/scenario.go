package domain

import (
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultHorizonYears is the projection length used when a scenario has no end date
const DefaultHorizonYears = 30

// Assumptions are the scenario-wide economic assumptions
type Assumptions struct {
	InflationRate     decimal.Decimal `yaml:"inflation_rate" json:"inflation_rate"`
	DefaultGrowthRate decimal.Decimal `yaml:"default_growth_rate" json:"default_growth_rate"`
}

// DefaultAssumptions returns the fallback assumption set (5% inflation, 7% growth).
func DefaultAssumptions() Assumptions {
	return Assumptions{
		InflationRate:     decimal.NewFromFloat(0.05),
		DefaultGrowthRate: decimal.NewFromFloat(0.07),
	}
}

// storedAssumptions is the persisted JSON shape.
type storedAssumptions struct {
	InflationRate *decimal.Decimal `json:"inflationRate,omitempty"`
	GrowthRates   *struct {
		Default *decimal.Decimal `json:"default,omitempty"`
	} `json:"growthRates,omitempty"`
}

// EncodeAssumptions serializes assumptions for storage.
func EncodeAssumptions(a Assumptions) (string, error) {
	inflation := a.InflationRate
	growth := a.DefaultGrowthRate
	s := storedAssumptions{InflationRate: &inflation}
	s.GrowthRates = &struct {
		Default *decimal.Decimal `json:"default,omitempty"`
	}{Default: &growth}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding assumptions: %w", err)
	}
	return string(b), nil
}

// DecodeAssumptions parses stored assumption JSON. Missing keys take defaults; on a decode
// error the full default set is returned together with the error.
func DecodeAssumptions(raw string) (Assumptions, error) {
	a := DefaultAssumptions()
	if raw == "" {
		return a, nil
	}
	var s storedAssumptions
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return DefaultAssumptions(), fmt.Errorf("decoding assumptions: %w", err)
	}
	if s.InflationRate != nil {
		a.InflationRate = *s.InflationRate
	}
	if s.GrowthRates != nil && s.GrowthRates.Default != nil {
		a.DefaultGrowthRate = *s.GrowthRates.Default
	}
	return a, nil
}

// UnmarshalYAML fills unspecified assumptions with defaults.
func (a *Assumptions) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		InflationRate     *decimal.Decimal `yaml:"inflation_rate"`
		DefaultGrowthRate *decimal.Decimal `yaml:"default_growth_rate"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*a = DefaultAssumptions()
	if aux.InflationRate != nil {
		a.InflationRate = *aux.InflationRate
	}
	if aux.DefaultGrowthRate != nil {
		a.DefaultGrowthRate = *aux.DefaultGrowthRate
	}
	return nil
}

// Scenario is a named what-if timeline owned by a user
type Scenario struct {
	ID           string            `yaml:"id" json:"id"`
	UserID       string            `yaml:"-" json:"user_id"`
	Name         string            `yaml:"name" json:"name"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	StartDate    time.Time         `yaml:"start_date" json:"start_date"`
	EndDate      *time.Time        `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	EndCondition string            `yaml:"end_condition,omitempty" json:"end_condition,omitempty"`
	Assumptions  Assumptions       `yaml:"assumptions" json:"assumptions"`
	IsBaseline   bool              `yaml:"is_baseline" json:"is_baseline"`
	LastRunAt    *time.Time        `yaml:"-" json:"last_run_at,omitempty"`
	Events       []SimulationEvent `yaml:"events" json:"events"`

	// Set when stored assumption JSON could not be decoded and defaults were substituted.
	MalformedAssumptions bool `yaml:"-" json:"-"`
}

// UnmarshalYAML applies default assumptions when the block is omitted.
func (s *Scenario) UnmarshalYAML(value *yaml.Node) error {
	type plain Scenario
	p := plain{Assumptions: DefaultAssumptions()}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Scenario(p)
	return nil
}

// ResolvedEndDate returns the explicit end date or start + DefaultHorizonYears.
func (s *Scenario) ResolvedEndDate() time.Time {
	if s.EndDate != nil {
		return *s.EndDate
	}
	return s.StartDate.AddDate(DefaultHorizonYears, 0, 0)
}

// OrderedEvents returns active events in ascending SortOrder, ties broken by ID.
func (s *Scenario) OrderedEvents() []SimulationEvent {
	out := make([]SimulationEvent, 0, len(s.Events))
	for _, e := range s.Events {
		if !e.Disabled {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SimulationEvent is a scheduled or conditional balance change within a scenario
type SimulationEvent struct {
	ID                  string           `yaml:"id" json:"id"`
	ScenarioID          string           `yaml:"-" json:"scenario_id"`
	Name                string           `yaml:"name" json:"name"`
	Description         string           `yaml:"description,omitempty" json:"description,omitempty"`
	TriggerType         TriggerType      `yaml:"trigger_type" json:"trigger_type"`
	TriggerDate         *time.Time       `yaml:"trigger_date,omitempty" json:"trigger_date,omitempty"`
	TriggerAge          *int             `yaml:"trigger_age,omitempty" json:"trigger_age,omitempty"`
	TriggerCondition    string           `yaml:"trigger_condition,omitempty" json:"trigger_condition,omitempty"`
	EventType           string           `yaml:"event_type" json:"event_type"`
	AmountType          AmountType       `yaml:"amount_type" json:"amount_type"`
	AmountValue         *decimal.Decimal `yaml:"amount_value,omitempty" json:"amount_value,omitempty"`
	AmountFormula       string           `yaml:"amount_formula,omitempty" json:"amount_formula,omitempty"`
	AffectedAccountID   string           `yaml:"affected_account_id,omitempty" json:"affected_account_id,omitempty"`
	SourceAccountID     string           `yaml:"source_account_id,omitempty" json:"source_account_id,omitempty"`
	AppliesOnce         bool             `yaml:"applies_once" json:"applies_once"`
	RecurrenceFrequency PaymentFrequency `yaml:"recurrence_frequency,omitempty" json:"recurrence_frequency,omitempty"`
	RecurrenceEndDate   *time.Time       `yaml:"recurrence_end_date,omitempty" json:"recurrence_end_date,omitempty"`
	SortOrder           int              `yaml:"sort_order" json:"sort_order"`
	Disabled            bool             `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// UnmarshalYAML makes events one-time unless applies_once is set to false.
func (e *SimulationEvent) UnmarshalYAML(value *yaml.Node) error {
	type plain SimulationEvent
	p := plain{AppliesOnce: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*e = SimulationEvent(p)
	return nil
}

// ValidateEventOrder checks that active events have unique sort orders.
func ValidateEventOrder(events []SimulationEvent) error {
	seen := make(map[int]string, len(events))
	for _, e := range events {
		if e.Disabled {
			continue
		}
		if other, ok := seen[e.SortOrder]; ok {
			return fmt.Errorf("events %q and %q share sort_order %d", other, e.Name, e.SortOrder)
		}
		seen[e.SortOrder] = e.Name
	}
	return nil
}
