package calculation

import (
	"testing"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestShouldApply(t *testing.T) {
	feb := datePtr(2024, 2, 15)

	tests := []struct {
		name    string
		freq    domain.PaymentFrequency
		current time.Time
		anchor  *time.Time
		want    bool
	}{
		{"weekly every month", domain.FrequencyWeekly, month(2025, 7), nil, true},
		{"biweekly every month", domain.FrequencyBiweekly, month(2025, 7), feb, true},
		{"monthly every month", domain.FrequencyMonthly, month(2025, 3), nil, true},
		{"quarterly on anchor phase", domain.FrequencyQuarterly, month(2025, 5), feb, true},
		{"quarterly on anchor phase next year", domain.FrequencyQuarterly, month(2026, 11), feb, true},
		{"quarterly off phase", domain.FrequencyQuarterly, month(2025, 6), feb, false},
		{"quarterly no anchor defaults to january", domain.FrequencyQuarterly, month(2025, 4), nil, true},
		{"quarterly no anchor off phase", domain.FrequencyQuarterly, month(2025, 3), nil, false},
		{"quarterly december anchor", domain.FrequencyQuarterly, month(2025, 3), datePtr(2024, 12, 1), true},
		{"annually anchor month", domain.FrequencyAnnually, month(2030, 2), feb, true},
		{"annually other month", domain.FrequencyAnnually, month(2030, 3), feb, false},
		{"annually no anchor january", domain.FrequencyAnnually, month(2030, 1), nil, true},
		{"once in anchor month", domain.FrequencyOnce, month(2024, 2), feb, true},
		{"once same month other year", domain.FrequencyOnce, month(2025, 2), feb, false},
		{"once without anchor", domain.FrequencyOnce, month(2024, 2), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldApply(tt.freq, tt.current, tt.anchor))
		})
	}
}

func TestMonthlyEquivalent(t *testing.T) {
	amount := decimal.NewFromInt(1200)
	tests := []struct {
		freq domain.PaymentFrequency
		want decimal.Decimal
	}{
		{domain.FrequencyWeekly, decimal.NewFromInt(5200)},
		{domain.FrequencyBiweekly, decimal.NewFromInt(2600)},
		{domain.FrequencyMonthly, decimal.NewFromInt(1200)},
		{domain.FrequencyQuarterly, decimal.NewFromInt(400)},
		{domain.FrequencyAnnually, decimal.NewFromInt(100)},
		{domain.FrequencyOnce, decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			got := MonthlyEquivalent(amount, tt.freq)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}
