package calculation

import (
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// RECURRENCE RESOLUTION:
//
// The simulation steps one calendar month at a time, so sub-monthly items
// (weekly, biweekly) fire once per month. Their amounts are not multiplied
// here; this is a known resolution limit of the monthly step.
//
// Quarterly items fire when month % 3 matches the anchor month % 3 and annual
// items fire in the anchor month. Without an anchor, January is assumed.
// Once items fire only in the anchor's calendar month; with no anchor they
// never fire.

// ShouldApply reports whether an item of the given frequency fires in the period
// containing current.
func ShouldApply(freq domain.PaymentFrequency, current time.Time, anchor *time.Time) bool {
	anchorMonth := int(time.January)
	if anchor != nil {
		anchorMonth = int(anchor.Month())
	}

	switch freq {
	case domain.FrequencyWeekly, domain.FrequencyBiweekly, domain.FrequencyMonthly:
		return true
	case domain.FrequencyQuarterly:
		return int(current.Month())%3 == anchorMonth%3
	case domain.FrequencyAnnually:
		return int(current.Month()) == anchorMonth
	case domain.FrequencyOnce:
		return anchor != nil && dateutil.SameMonth(current, *anchor)
	default:
		return true
	}
}

var (
	weeksPerYear      = decimal.NewFromInt(52)
	fortnightsPerYear = decimal.NewFromInt(26)
	monthsPerYear     = decimal.NewFromInt(12)
)

// MonthlyEquivalent converts a recurring amount to its monthly average. Once items
// contribute nothing.
func MonthlyEquivalent(amount decimal.Decimal, freq domain.PaymentFrequency) decimal.Decimal {
	switch freq {
	case domain.FrequencyWeekly:
		return amount.Mul(weeksPerYear).Div(monthsPerYear)
	case domain.FrequencyBiweekly:
		return amount.Mul(fortnightsPerYear).Div(monthsPerYear)
	case domain.FrequencyMonthly:
		return amount
	case domain.FrequencyQuarterly:
		return amount.Div(decimal.NewFromInt(3))
	case domain.FrequencyAnnually:
		return amount.Div(monthsPerYear)
	case domain.FrequencyOnce:
		return decimal.Zero
	default:
		return amount
	}
}
