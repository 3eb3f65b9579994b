package calculation

import (
	"github.com/lifeplan/projection-engine/internal/domain"
	dec "github.com/lifeplan/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// Rates are annual fractions (0.12 = 12%). Each formula returns one month of
// interest on the balance:
//
//	daily:      balance * ((1 + r/365)^30.42 - 1)
//	monthly:    balance * r/12
//	quarterly:  balance * ((1 + r/4)^(1/3) - 1)
//	annually:   balance * ((1 + r)^(1/12) - 1)
//	continuous: balance * (e^(r/12) - 1)

// AverageDaysPerMonth is the day count used for daily compounding
const AverageDaysPerMonth = 30.42

// MonthlyInterest returns one month of interest on a balance.
func MonthlyInterest(balance, annualRate decimal.Decimal, compounding domain.CompoundingFrequency) decimal.Decimal {
	if annualRate.IsZero() || balance.IsZero() {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)

	switch compounding {
	case domain.CompoundingDaily:
		factor := dec.PowFloat(one.Add(annualRate.Div(decimal.NewFromInt(365))), AverageDaysPerMonth)
		return balance.Mul(factor.Sub(one))
	case domain.CompoundingMonthly:
		return balance.Mul(annualRate.Div(monthsPerYear))
	case domain.CompoundingQuarterly:
		factor := dec.PowFloat(one.Add(annualRate.Div(decimal.NewFromInt(4))), 1.0/3)
		return balance.Mul(factor.Sub(one))
	case domain.CompoundingAnnually:
		factor := dec.PowFloat(one.Add(annualRate), 1.0/12)
		return balance.Mul(factor.Sub(one))
	case domain.CompoundingContinuous:
		return balance.Mul(dec.ExpMinusOne(annualRate.Div(monthsPerYear)))
	default:
		return decimal.Zero
	}
}

// EffectiveRate returns the account's annual rate, falling back to the scenario's
// default growth rate for growth accounts that compound but carry no rate.
func EffectiveRate(account *domain.Account, assumptions domain.Assumptions) decimal.Decimal {
	if account.InterestRateAnnual != nil {
		return *account.InterestRateAnnual
	}
	if account.InterestCompounding == domain.CompoundingNone || account.InterestCompounding == "" || account.IsLiability {
		return decimal.Zero
	}
	switch account.Type {
	case domain.AccountInvestment, domain.AccountRetirement:
		return assumptions.DefaultGrowthRate
	default:
		return decimal.Zero
	}
}
