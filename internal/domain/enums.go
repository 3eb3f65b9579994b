package domain

import (
	"fmt"
	"strings"
)

// AccountType classifies an account for breakdowns and default-account lookup
type AccountType string

const (
	AccountBank       AccountType = "bank"
	AccountInvestment AccountType = "investment"
	AccountRetirement AccountType = "retirement"
	AccountProperty   AccountType = "property"
	AccountVehicle    AccountType = "vehicle"
	AccountCrypto     AccountType = "crypto"
	AccountLoan       AccountType = "loan"
	AccountCredit     AccountType = "credit"
	AccountMortgage   AccountType = "mortgage"
	AccountOther      AccountType = "other"
)

var accountTypes = []AccountType{
	AccountBank, AccountInvestment, AccountRetirement, AccountProperty, AccountVehicle,
	AccountCrypto, AccountLoan, AccountCredit, AccountMortgage, AccountOther,
}

// CompoundingFrequency is how often interest is capitalized into principal
type CompoundingFrequency string

const (
	CompoundingNone       CompoundingFrequency = "none"
	CompoundingDaily      CompoundingFrequency = "daily"
	CompoundingMonthly    CompoundingFrequency = "monthly"
	CompoundingQuarterly  CompoundingFrequency = "quarterly"
	CompoundingAnnually   CompoundingFrequency = "annually"
	CompoundingContinuous CompoundingFrequency = "continuous"
)

var compoundingFrequencies = []CompoundingFrequency{
	CompoundingNone, CompoundingDaily, CompoundingMonthly,
	CompoundingQuarterly, CompoundingAnnually, CompoundingContinuous,
}

// PaymentFrequency is the cadence of a recurring income, expense, contribution or event
type PaymentFrequency string

const (
	FrequencyOnce      PaymentFrequency = "once"
	FrequencyWeekly    PaymentFrequency = "weekly"
	FrequencyBiweekly  PaymentFrequency = "biweekly"
	FrequencyMonthly   PaymentFrequency = "monthly"
	FrequencyQuarterly PaymentFrequency = "quarterly"
	FrequencyAnnually  PaymentFrequency = "annually"
)

var paymentFrequencies = []PaymentFrequency{
	FrequencyOnce, FrequencyWeekly, FrequencyBiweekly,
	FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually,
}

// PeriodsPerYear returns how many payments of this frequency occur in a year.
// Once is treated as a single annual payment.
func (f PaymentFrequency) PeriodsPerYear() int64 {
	switch f {
	case FrequencyWeekly:
		return 52
	case FrequencyBiweekly:
		return 26
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencyAnnually, FrequencyOnce:
		return 1
	default:
		return 12
	}
}

// AmountType selects how an expense or event amount is resolved
type AmountType string

const (
	AmountFixed      AmountType = "fixed"
	AmountPercentage AmountType = "percentage"
	AmountFormula    AmountType = "formula"
)

var amountTypes = []AmountType{AmountFixed, AmountPercentage, AmountFormula}

// TriggerType decides how an event activates
type TriggerType string

const (
	TriggerDate      TriggerType = "date"
	TriggerAge       TriggerType = "age"
	TriggerCondition TriggerType = "condition"
)

var triggerTypes = []TriggerType{TriggerDate, TriggerAge, TriggerCondition}

// EndConditionType stops a recurring expense or contribution
type EndConditionType string

const (
	EndNone                EndConditionType = "none"
	EndUntilAccountSettled EndConditionType = "until_account_settled"
	EndUntilDate           EndConditionType = "until_date"
	EndUntilAmount         EndConditionType = "until_amount"
)

var endConditionTypes = []EndConditionType{EndNone, EndUntilAccountSettled, EndUntilDate, EndUntilAmount}

// Granularity is the bucket size used when reading projections back
type Granularity string

const (
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
	GranularityYearly    Granularity = "yearly"
)

var granularities = []Granularity{GranularityMonthly, GranularityQuarterly, GranularityYearly}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}

func parseEnum[T ~string](kind, raw string, allowed []T) (T, error) {
	n := normalizeEnum(raw)
	for _, v := range allowed {
		if string(v) == n {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}

// ParseAccountType parses an account type case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	return parseEnum("account type", s, accountTypes)
}

// ParseCompounding parses a compounding frequency; empty means none.
func ParseCompounding(s string) (CompoundingFrequency, error) {
	if strings.TrimSpace(s) == "" {
		return CompoundingNone, nil
	}
	return parseEnum("compounding frequency", s, compoundingFrequencies)
}

// ParsePaymentFrequency parses a payment frequency case-insensitively.
func ParsePaymentFrequency(s string) (PaymentFrequency, error) {
	return parseEnum("payment frequency", s, paymentFrequencies)
}

// ParseAmountType parses an amount type; empty means fixed.
func ParseAmountType(s string) (AmountType, error) {
	if strings.TrimSpace(s) == "" {
		return AmountFixed, nil
	}
	return parseEnum("amount type", s, amountTypes)
}

// ParseTriggerType parses an event trigger type.
func ParseTriggerType(s string) (TriggerType, error) {
	return parseEnum("trigger type", s, triggerTypes)
}

// ParseEndConditionType parses an end condition; empty means none.
func ParseEndConditionType(s string) (EndConditionType, error) {
	if strings.TrimSpace(s) == "" {
		return EndNone, nil
	}
	return parseEnum("end condition", s, endConditionTypes)
}

// ParseGranularity parses a read granularity; empty means monthly.
func ParseGranularity(s string) (Granularity, error) {
	if strings.TrimSpace(s) == "" {
		return GranularityMonthly, nil
	}
	g, err := parseEnum("granularity", s, granularities)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
	return g, nil
}
