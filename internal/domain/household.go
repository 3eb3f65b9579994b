package domain

import (
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/lifeplan/projection-engine/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// User is the owner of accounts and scenarios; only the birth date matters to the engine
type User struct {
	ID           string     `yaml:"id" json:"id"`
	Name         string     `yaml:"name" json:"name"`
	DateOfBirth  *time.Time `yaml:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	HomeCurrency string     `yaml:"home_currency,omitempty" json:"home_currency,omitempty"`
}

// Age returns the user's age in whole years at the given date. ok is false when the
// date of birth is unknown.
func (u *User) Age(at time.Time) (age int, ok bool) {
	if u.DateOfBirth == nil {
		return 0, false
	}
	return dateutil.Age(*u.DateOfBirth, at), true
}

// Account is a balance-bearing asset or liability. Liability balances are held as positive amounts owed.
type Account struct {
	ID                  string               `yaml:"id" json:"id"`
	UserID              string               `yaml:"-" json:"user_id"`
	Name                string               `yaml:"name" json:"name"`
	Type                AccountType          `yaml:"type" json:"type"`
	Currency            string               `yaml:"currency" json:"currency"`
	CurrentBalance      decimal.Decimal      `yaml:"current_balance" json:"current_balance"`
	IsLiability         bool                 `yaml:"is_liability" json:"is_liability"`
	InterestRateAnnual  *decimal.Decimal     `yaml:"interest_rate_annual,omitempty" json:"interest_rate_annual,omitempty"`
	InterestCompounding CompoundingFrequency `yaml:"interest_compounding,omitempty" json:"interest_compounding,omitempty"`
	Disabled            bool                 `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// IncomeSource is recurring income credited to an account
type IncomeSource struct {
	ID                 string           `yaml:"id" json:"id"`
	UserID             string           `yaml:"-" json:"user_id"`
	Name               string           `yaml:"name" json:"name"`
	BaseAmount         decimal.Decimal  `yaml:"base_amount" json:"base_amount"`
	Frequency          PaymentFrequency `yaml:"frequency" json:"frequency"`
	AnnualIncreaseRate *decimal.Decimal `yaml:"annual_increase_rate,omitempty" json:"annual_increase_rate,omitempty"`
	TaxProfileID       string           `yaml:"tax_profile_id,omitempty" json:"tax_profile_id,omitempty"`
	IsPreTax           bool             `yaml:"is_pre_tax" json:"is_pre_tax"`
	TargetAccountID    string           `yaml:"target_account_id,omitempty" json:"target_account_id,omitempty"`
	StartDate          *time.Time       `yaml:"start_date,omitempty" json:"start_date,omitempty"` // recurrence anchor
	Disabled           bool             `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// EndCondition stops a recurring expense or contribution once satisfied
type EndCondition struct {
	Type            EndConditionType `yaml:"type" json:"type"`
	AccountID       string           `yaml:"account_id,omitempty" json:"account_id,omitempty"`
	EndDate         *time.Time       `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	AmountThreshold *decimal.Decimal `yaml:"amount_threshold,omitempty" json:"amount_threshold,omitempty"`
}

// ExpenseDefinition is a recurring outflow debited from an account
type ExpenseDefinition struct {
	ID                string           `yaml:"id" json:"id"`
	UserID            string           `yaml:"-" json:"user_id"`
	Name              string           `yaml:"name" json:"name"`
	AmountType        AmountType       `yaml:"amount_type" json:"amount_type"`
	AmountValue       *decimal.Decimal `yaml:"amount_value,omitempty" json:"amount_value,omitempty"`
	AmountFormula     string           `yaml:"amount_formula,omitempty" json:"amount_formula,omitempty"`
	Frequency         PaymentFrequency `yaml:"frequency" json:"frequency"`
	InflationAdjusted bool             `yaml:"inflation_adjusted" json:"inflation_adjusted"`
	LinkedAccountID   string           `yaml:"linked_account_id,omitempty" json:"linked_account_id,omitempty"`
	StartDate         *time.Time       `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	EndCondition      EndCondition     `yaml:"end_condition,omitempty" json:"end_condition"`
	Disabled          bool             `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// InvestmentContribution moves money from a source account into a target account (or pays down a liability)
type InvestmentContribution struct {
	ID                 string           `yaml:"id" json:"id"`
	UserID             string           `yaml:"-" json:"user_id"`
	Name               string           `yaml:"name" json:"name"`
	Amount             decimal.Decimal  `yaml:"amount" json:"amount"`
	Frequency          PaymentFrequency `yaml:"frequency" json:"frequency"`
	AnnualIncreaseRate *decimal.Decimal `yaml:"annual_increase_rate,omitempty" json:"annual_increase_rate,omitempty"`
	SourceAccountID    string           `yaml:"source_account_id,omitempty" json:"source_account_id,omitempty"`
	TargetAccountID    string           `yaml:"target_account_id,omitempty" json:"target_account_id,omitempty"`
	StartDate          *time.Time       `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	EndCondition       EndCondition     `yaml:"end_condition,omitempty" json:"end_condition"`
	Disabled           bool             `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// TaxBracket is one row of a progressive schedule. BaseTax is the tax owed on income up to Min.
type TaxBracket struct {
	Min     decimal.Decimal  `yaml:"min" json:"min"`
	Max     *decimal.Decimal `yaml:"max,omitempty" json:"max,omitempty"`
	Rate    decimal.Decimal  `yaml:"rate" json:"rate"`
	BaseTax decimal.Decimal  `yaml:"base_tax" json:"baseTax"`
}

// TaxProfile converts gross income to net income. FlatRate/FlatMonthlyCap model a capped
// contribution such as unemployment insurance; Rebates are summed and subtracted from tax.
type TaxProfile struct {
	ID             string                     `yaml:"id" json:"id"`
	UserID         string                     `yaml:"-" json:"user_id"`
	Name           string                     `yaml:"name" json:"name"`
	Brackets       []TaxBracket               `yaml:"brackets" json:"brackets"`
	FlatRate       *decimal.Decimal           `yaml:"flat_rate,omitempty" json:"flat_rate,omitempty"`
	FlatMonthlyCap *decimal.Decimal           `yaml:"flat_monthly_cap,omitempty" json:"flat_monthly_cap,omitempty"`
	Rebates        map[string]decimal.Decimal `yaml:"rebates,omitempty" json:"rebates,omitempty"`
	Disabled       bool                       `yaml:"disabled,omitempty" json:"disabled,omitempty"`

	// Set when stored bracket/rebate JSON could not be decoded.
	MalformedBrackets bool `yaml:"-" json:"-"`
	MalformedRebates  bool `yaml:"-" json:"-"`
}

// BracketsDescending returns the brackets ordered by Min, highest first.
func (tp *TaxProfile) BracketsDescending() []TaxBracket {
	out := append([]TaxBracket(nil), tp.Brackets...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Min.GreaterThan(out[j].Min) })
	return out
}

// TotalRebates sums all configured rebates.
func (tp *TaxProfile) TotalRebates() decimal.Decimal {
	total := decimal.Zero
	for _, v := range tp.Rebates {
		total = total.Add(v)
	}
	return total
}

// EncodeTaxBrackets serializes brackets for storage.
func EncodeTaxBrackets(brackets []TaxBracket) (string, error) {
	if brackets == nil {
		brackets = []TaxBracket{}
	}
	b, err := json.Marshal(brackets)
	if err != nil {
		return "", fmt.Errorf("encoding tax brackets: %w", err)
	}
	return string(b), nil
}

// DecodeTaxBrackets parses stored bracket JSON.
func DecodeTaxBrackets(raw string) ([]TaxBracket, error) {
	var brackets []TaxBracket
	if err := json.Unmarshal([]byte(raw), &brackets); err != nil {
		return nil, fmt.Errorf("decoding tax brackets: %w", err)
	}
	return brackets, nil
}

// EncodeRebates serializes a rebate map for storage. Nil maps encode as empty.
func EncodeRebates(rebates map[string]decimal.Decimal) (string, error) {
	if len(rebates) == 0 {
		return "", nil
	}
	b, err := json.Marshal(rebates)
	if err != nil {
		return "", fmt.Errorf("encoding rebates: %w", err)
	}
	return string(b), nil
}

// DecodeRebates parses stored rebate JSON; empty input yields no rebates.
func DecodeRebates(raw string) (map[string]decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	var rebates map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(raw), &rebates); err != nil {
		return nil, fmt.Errorf("decoding rebates: %w", err)
	}
	return rebates, nil
}

// NewTaxProfileFromJSON builds a profile from stored JSON columns. Decode failures are
// recorded on the profile rather than returned, so a run can fall back instead of aborting.
func NewTaxProfileFromJSON(id, name, bracketsJSON, rebatesJSON string) TaxProfile {
	tp := TaxProfile{ID: id, Name: name}
	brackets, err := DecodeTaxBrackets(bracketsJSON)
	if err != nil {
		tp.MalformedBrackets = true
	} else {
		tp.Brackets = brackets
	}
	rebates, err := DecodeRebates(rebatesJSON)
	if err != nil {
		tp.MalformedRebates = true
	} else {
		tp.Rebates = rebates
	}
	return tp
}

// Household bundles everything a user owns; it is the unit of YAML import
type Household struct {
	User          User                     `yaml:"user" json:"user"`
	Accounts      []Account                `yaml:"accounts" json:"accounts"`
	IncomeSources []IncomeSource           `yaml:"income_sources" json:"income_sources"`
	Expenses      []ExpenseDefinition      `yaml:"expenses" json:"expenses"`
	Contributions []InvestmentContribution `yaml:"investment_contributions" json:"investment_contributions"`
	TaxProfiles   []TaxProfile             `yaml:"tax_profiles" json:"tax_profiles"`
	Scenarios     []Scenario               `yaml:"scenarios" json:"scenarios"`
}
