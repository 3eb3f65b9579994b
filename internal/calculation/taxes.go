package calculation

import (
	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Brackets: a single bracket applies. The bracket with the largest Min not
//    exceeding annual income is used: tax = BaseTax + (income - Min) * Rate.
//    BaseTax is expected to carry the tax owed on the lower bands.
//
// 2. Flat contribution: income * FlatRate, capped at FlatMonthlyCap * 12 when a
//    cap is configured (e.g. unemployment insurance).
//
// 3. Rebates: summed and subtracted from tax; tax never goes below zero.
//
// 4. Malformed bracket data falls back to DefaultFallbackTaxRate of income.
//    Malformed rebate data is treated as no rebates.

// DefaultFallbackTaxRate is applied when a profile's brackets cannot be decoded
var DefaultFallbackTaxRate = decimal.NewFromFloat(0.25)

// TaxCalculator converts gross recurring income into net income
type TaxCalculator struct {
	FallbackRate decimal.Decimal
}

// NewTaxCalculator creates a tax calculator with the default fallback rate
func NewTaxCalculator() *TaxCalculator {
	return &TaxCalculator{FallbackRate: DefaultFallbackTaxRate}
}

// Annualize converts a per-payment amount to an annual amount. Once is treated as the full amount.
func Annualize(amount decimal.Decimal, freq domain.PaymentFrequency) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(freq.PeriodsPerYear()))
}

// Deannualize converts an annual amount back to a per-payment amount.
func Deannualize(amount decimal.Decimal, freq domain.PaymentFrequency) decimal.Decimal {
	return amount.Div(decimal.NewFromInt(freq.PeriodsPerYear()))
}

// BracketTax returns the tax for annual income under a bracket schedule. An empty
// schedule owes nothing.
func BracketTax(annualIncome decimal.Decimal, profile *domain.TaxProfile) decimal.Decimal {
	for _, b := range profile.BracketsDescending() {
		if annualIncome.GreaterThanOrEqual(b.Min) {
			return b.BaseTax.Add(annualIncome.Sub(b.Min).Mul(b.Rate))
		}
	}
	return decimal.Zero
}

// AnnualTax returns the total annual tax owed on annual income after the flat
// contribution and rebates.
func (tc *TaxCalculator) AnnualTax(annualIncome decimal.Decimal, profile *domain.TaxProfile) decimal.Decimal {
	var tax decimal.Decimal
	if profile.MalformedBrackets {
		tax = annualIncome.Mul(tc.FallbackRate)
	} else {
		tax = BracketTax(annualIncome, profile)
	}

	if profile.FlatRate != nil {
		contribution := annualIncome.Mul(*profile.FlatRate)
		if profile.FlatMonthlyCap != nil {
			contribution = decimal.Min(contribution, profile.FlatMonthlyCap.Mul(decimal.NewFromInt(12)))
		}
		tax = tax.Add(contribution)
	}

	if !profile.MalformedRebates {
		tax = tax.Sub(profile.TotalRebates())
	}
	return decimal.Max(decimal.Zero, tax)
}

// NetIncome converts a gross recurring amount to net using the profile. A nil profile
// leaves the amount untaxed.
func (tc *TaxCalculator) NetIncome(gross decimal.Decimal, freq domain.PaymentFrequency, profile *domain.TaxProfile) decimal.Decimal {
	if profile == nil {
		return gross
	}
	annualGross := Annualize(gross, freq)
	annualNet := annualGross.Sub(tc.AnnualTax(annualGross, profile))
	return Deannualize(annualNet, freq)
}
