package calculation

import (
	"fmt"
	"sort"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	dec "github.com/lifeplan/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// DefaultMilestoneTargets returns the standard net-worth milestones
func DefaultMilestoneTargets() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.NewFromInt(100000),
		decimal.NewFromInt(500000),
		decimal.NewFromInt(1000000),
		decimal.NewFromInt(5000000),
		decimal.NewFromInt(10000000),
	}
}

// SortTargets returns a deduplicated ascending copy of the targets.
func SortTargets(targets []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(targets))
	for _, t := range targets {
		dup := false
		for _, o := range out {
			if o.Equal(t) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

// MilestoneDescription renders the human label for a target, e.g. "Net worth reaches $100,000".
func MilestoneDescription(target decimal.Decimal) string {
	return "Net worth reaches " + dec.NewMoneyFromDecimal(target).FormatWhole()
}

// MilestoneLabel renders the condition-style label stored on a projection row.
func MilestoneLabel(target decimal.Decimal) string {
	return fmt.Sprintf("netWorth >= %s", target.String())
}

// YearsAway converts elapsed months into fractional years.
func YearsAway(months int) decimal.Decimal {
	return decimal.NewFromInt(int64(months)).Div(monthsPerYear)
}

// milestoneTracker records the first crossing of each target. Targets are checked
// in ascending order and each is reached at most once.
type milestoneTracker struct {
	targets []decimal.Decimal
	reached []bool
}

func newMilestoneTracker(targets []decimal.Decimal) *milestoneTracker {
	sorted := SortTargets(targets)
	return &milestoneTracker{targets: sorted, reached: make([]bool, len(sorted))}
}

// observe checks a period's net worth and returns any newly crossed milestones with
// their row labels.
func (m *milestoneTracker) observe(date time.Time, netWorth decimal.Decimal, monthsAway int) ([]domain.MilestoneResult, []string) {
	var results []domain.MilestoneResult
	var labels []string
	for i, target := range m.targets {
		if m.reached[i] || netWorth.LessThan(target) {
			continue
		}
		m.reached[i] = true
		results = append(results, domain.MilestoneResult{
			Description: MilestoneDescription(target),
			Date:        date,
			Value:       target,
			YearsAway:   YearsAway(monthsAway),
		})
		labels = append(labels, MilestoneLabel(target))
	}
	return results, labels
}
