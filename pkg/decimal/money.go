package decimal

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary amount with proper financial precision
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal creates a new Money instance from a decimal.Decimal
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// Format renders the amount as currency with thousands separators, e.g. "$1,234.50"
func (m Money) Format() string {
	return formatCurrency(m.Decimal, 2)
}

// FormatWhole renders the amount as whole currency units, e.g. "$100,000"
func (m Money) FormatWhole() string {
	return formatCurrency(m.Decimal, 0)
}

func formatCurrency(d decimal.Decimal, places int32) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	s := d.StringFixed(places)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + frac
}

// PowFloat raises base to a fractional exponent. shopspring/decimal only supports
// integer exponents exactly, so fractional powers go through float64.
func PowFloat(base decimal.Decimal, exp float64) decimal.Decimal {
	return decimal.NewFromFloat(math.Pow(base.InexactFloat64(), exp))
}

// GrowthFactor returns (1 + rate)^years. Zero years yields exactly one.
func GrowthFactor(rate decimal.Decimal, years float64) decimal.Decimal {
	if years == 0 || rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return PowFloat(decimal.NewFromInt(1).Add(rate), years)
}

// ExpMinusOne returns e^x - 1
func ExpMinusOne(x decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(math.Expm1(x.InexactFloat64()))
}
