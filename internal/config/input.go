package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lifeplan/projection-engine/internal/calculation"
	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultCurrency is used when neither the account nor the user names a currency
const DefaultCurrency = "USD"

// idNamespace scopes generated IDs so the same names always map to the same IDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lifeplan/household"))

// InputParser handles parsing of household input files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a household from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Household, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a household document
func (ip *InputParser) Parse(data []byte) (*domain.Household, error) {
	var h domain.Household
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateHousehold(&h); err != nil {
		return nil, fmt.Errorf("household validation failed: %w", err)
	}
	return &h, nil
}

// derivedID returns a stable ID for an entity without one, so re-importing the same
// file updates records instead of duplicating them.
func derivedID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "/"))).String()
}

// ValidateHousehold normalizes enum spellings, fills missing IDs and ownership links,
// and checks the household for consistency.
func (ip *InputParser) ValidateHousehold(h *domain.Household) error {
	if err := ip.validateUser(&h.User); err != nil {
		return fmt.Errorf("user validation failed: %w", err)
	}
	uid := h.User.ID

	accounts := make(map[string]bool, len(h.Accounts))
	for i := range h.Accounts {
		a := &h.Accounts[i]
		if err := ip.validateAccount(uid, h.User.HomeCurrency, a); err != nil {
			return fmt.Errorf("account %d (%s) validation failed: %w", i, a.Name, err)
		}
		if accounts[a.ID] {
			return fmt.Errorf("duplicate account id %s", a.ID)
		}
		accounts[a.ID] = true
	}

	profiles := make(map[string]bool, len(h.TaxProfiles))
	for i := range h.TaxProfiles {
		tp := &h.TaxProfiles[i]
		if err := ip.validateTaxProfile(uid, tp); err != nil {
			return fmt.Errorf("tax profile %d (%s) validation failed: %w", i, tp.Name, err)
		}
		if profiles[tp.ID] {
			return fmt.Errorf("duplicate tax profile id %s", tp.ID)
		}
		profiles[tp.ID] = true
	}

	for i := range h.IncomeSources {
		inc := &h.IncomeSources[i]
		if err := ip.validateIncome(uid, inc, accounts, profiles); err != nil {
			return fmt.Errorf("income source %d (%s) validation failed: %w", i, inc.Name, err)
		}
	}

	for i := range h.Expenses {
		exp := &h.Expenses[i]
		if err := ip.validateExpense(uid, exp, accounts); err != nil {
			return fmt.Errorf("expense %d (%s) validation failed: %w", i, exp.Name, err)
		}
	}

	for i := range h.Contributions {
		c := &h.Contributions[i]
		if err := ip.validateContribution(uid, c, accounts); err != nil {
			return fmt.Errorf("contribution %d (%s) validation failed: %w", i, c.Name, err)
		}
	}

	if len(h.Scenarios) == 0 {
		return fmt.Errorf("no scenarios provided")
	}
	baselines := 0
	for i := range h.Scenarios {
		sc := &h.Scenarios[i]
		if err := ip.validateScenario(uid, sc, accounts); err != nil {
			return fmt.Errorf("scenario %q validation failed: %w", sc.Name, err)
		}
		if sc.IsBaseline {
			baselines++
		}
	}
	if baselines > 1 {
		return fmt.Errorf("at most one scenario can be the baseline, found %d", baselines)
	}

	return nil
}

func (ip *InputParser) validateUser(u *domain.User) error {
	if u.Name == "" && u.ID == "" {
		return fmt.Errorf("user name is required")
	}
	if u.ID == "" {
		u.ID = derivedID("user", u.Name)
	}
	if u.HomeCurrency == "" {
		u.HomeCurrency = DefaultCurrency
	}
	u.HomeCurrency = strings.ToUpper(u.HomeCurrency)
	if u.DateOfBirth != nil && u.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date of birth cannot be in the future")
	}
	return nil
}

func (ip *InputParser) validateAccount(uid, homeCurrency string, a *domain.Account) error {
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	if a.ID == "" {
		a.ID = derivedID(uid, "account", a.Name)
	}
	a.UserID = uid

	t, err := domain.ParseAccountType(string(a.Type))
	if err != nil {
		return err
	}
	a.Type = t
	if a.InterestCompounding, err = domain.ParseCompounding(string(a.InterestCompounding)); err != nil {
		return err
	}

	if a.Currency == "" {
		a.Currency = homeCurrency
	}
	a.Currency = strings.ToUpper(a.Currency)
	if a.IsLiability && a.CurrentBalance.IsNegative() {
		return fmt.Errorf("liability balance must be entered as a positive amount owed")
	}
	if a.InterestRateAnnual != nil && a.InterestRateAnnual.IsNegative() {
		return fmt.Errorf("interest rate cannot be negative")
	}
	if a.InterestRateAnnual != nil && a.InterestRateAnnual.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("interest rate must be a fraction (0.05 for 5%%), got %s", a.InterestRateAnnual)
	}
	return nil
}

func (ip *InputParser) validateTaxProfile(uid string, tp *domain.TaxProfile) error {
	if tp.Name == "" {
		return fmt.Errorf("tax profile name is required")
	}
	if tp.ID == "" {
		tp.ID = derivedID(uid, "tax_profile", tp.Name)
	}
	tp.UserID = uid

	one := decimal.NewFromInt(1)
	for i, b := range tp.Brackets {
		if b.Min.IsNegative() {
			return fmt.Errorf("bracket %d: min cannot be negative", i)
		}
		if b.Rate.IsNegative() || b.Rate.GreaterThan(one) {
			return fmt.Errorf("bracket %d: rate must be between 0 and 1", i)
		}
		if b.Max != nil && b.Max.LessThanOrEqual(b.Min) {
			return fmt.Errorf("bracket %d: max must be greater than min", i)
		}
		if b.BaseTax.IsNegative() {
			return fmt.Errorf("bracket %d: base tax cannot be negative", i)
		}
	}
	if tp.FlatRate != nil && (tp.FlatRate.IsNegative() || tp.FlatRate.GreaterThan(one)) {
		return fmt.Errorf("flat rate must be between 0 and 1")
	}
	if tp.FlatMonthlyCap != nil && tp.FlatMonthlyCap.IsNegative() {
		return fmt.Errorf("flat monthly cap cannot be negative")
	}
	for name, r := range tp.Rebates {
		if r.IsNegative() {
			return fmt.Errorf("rebate %s cannot be negative", name)
		}
	}
	return nil
}

func checkAccountRef(field, id string, accounts map[string]bool) error {
	if id != "" && !accounts[id] {
		return fmt.Errorf("%s references unknown account %s", field, id)
	}
	return nil
}

func checkOnceAnchor(freq domain.PaymentFrequency, start *time.Time) error {
	if freq == domain.FrequencyOnce && start == nil {
		return fmt.Errorf("frequency once requires start_date")
	}
	return nil
}

func (ip *InputParser) validateIncome(uid string, inc *domain.IncomeSource, accounts, profiles map[string]bool) error {
	if inc.Name == "" {
		return fmt.Errorf("income name is required")
	}
	if inc.ID == "" {
		inc.ID = derivedID(uid, "income", inc.Name)
	}
	inc.UserID = uid

	freq, err := domain.ParsePaymentFrequency(string(inc.Frequency))
	if err != nil {
		return err
	}
	inc.Frequency = freq
	if err := checkOnceAnchor(freq, inc.StartDate); err != nil {
		return err
	}
	if inc.BaseAmount.IsNegative() {
		return fmt.Errorf("base amount cannot be negative")
	}
	if inc.TaxProfileID != "" && !profiles[inc.TaxProfileID] {
		return fmt.Errorf("tax_profile_id references unknown tax profile %s", inc.TaxProfileID)
	}
	return checkAccountRef("target_account_id", inc.TargetAccountID, accounts)
}

func (ip *InputParser) validateEndCondition(ec *domain.EndCondition, accounts map[string]bool) error {
	t, err := domain.ParseEndConditionType(string(ec.Type))
	if err != nil {
		return err
	}
	ec.Type = t

	switch t {
	case domain.EndUntilAccountSettled:
		if ec.AccountID == "" {
			return fmt.Errorf("end condition %s requires account_id", t)
		}
		return checkAccountRef("end_condition.account_id", ec.AccountID, accounts)
	case domain.EndUntilDate:
		if ec.EndDate == nil {
			return fmt.Errorf("end condition %s requires end_date", t)
		}
	case domain.EndUntilAmount:
		if ec.AmountThreshold == nil || !ec.AmountThreshold.IsPositive() {
			return fmt.Errorf("end condition %s requires a positive amount_threshold", t)
		}
	}
	return nil
}

// validateAmount checks an amount type against the value or formula it needs.
func validateAmount(amountType *domain.AmountType, value *decimal.Decimal, formula string) error {
	t, err := domain.ParseAmountType(string(*amountType))
	if err != nil {
		return err
	}
	*amountType = t

	switch t {
	case domain.AmountFormula:
		if strings.TrimSpace(formula) == "" {
			return fmt.Errorf("amount_formula is required for formula amounts")
		}
	default:
		if value == nil {
			return fmt.Errorf("amount_value is required for %s amounts", t)
		}
	}
	return nil
}

func (ip *InputParser) validateExpense(uid string, exp *domain.ExpenseDefinition, accounts map[string]bool) error {
	if exp.Name == "" {
		return fmt.Errorf("expense name is required")
	}
	if exp.ID == "" {
		exp.ID = derivedID(uid, "expense", exp.Name)
	}
	exp.UserID = uid

	if err := validateAmount(&exp.AmountType, exp.AmountValue, exp.AmountFormula); err != nil {
		return err
	}
	if exp.AmountType == domain.AmountFixed && exp.AmountValue.IsNegative() {
		return fmt.Errorf("amount cannot be negative")
	}
	freq, err := domain.ParsePaymentFrequency(string(exp.Frequency))
	if err != nil {
		return err
	}
	exp.Frequency = freq
	if err := checkOnceAnchor(freq, exp.StartDate); err != nil {
		return err
	}
	if err := checkAccountRef("linked_account_id", exp.LinkedAccountID, accounts); err != nil {
		return err
	}
	return ip.validateEndCondition(&exp.EndCondition, accounts)
}

func (ip *InputParser) validateContribution(uid string, c *domain.InvestmentContribution, accounts map[string]bool) error {
	if c.Name == "" {
		return fmt.Errorf("contribution name is required")
	}
	if c.ID == "" {
		c.ID = derivedID(uid, "contribution", c.Name)
	}
	c.UserID = uid

	if !c.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	freq, err := domain.ParsePaymentFrequency(string(c.Frequency))
	if err != nil {
		return err
	}
	c.Frequency = freq
	if err := checkOnceAnchor(freq, c.StartDate); err != nil {
		return err
	}
	if c.TargetAccountID == "" {
		return fmt.Errorf("target_account_id is required")
	}
	if err := checkAccountRef("source_account_id", c.SourceAccountID, accounts); err != nil {
		return err
	}
	if err := checkAccountRef("target_account_id", c.TargetAccountID, accounts); err != nil {
		return err
	}
	if c.SourceAccountID == c.TargetAccountID {
		return fmt.Errorf("source and target accounts must differ")
	}
	return ip.validateEndCondition(&c.EndCondition, accounts)
}

func (ip *InputParser) validateScenario(uid string, sc *domain.Scenario, accounts map[string]bool) error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if sc.ID == "" {
		sc.ID = derivedID(uid, "scenario", sc.Name)
	}
	sc.UserID = uid

	if sc.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}
	if sc.EndDate != nil && sc.EndDate.Before(sc.StartDate) {
		return fmt.Errorf("end date cannot be before start date")
	}
	if sc.EndCondition != "" {
		if _, ok := calculation.ParseCondition(sc.EndCondition); !ok {
			return fmt.Errorf("end condition %q is not a valid comparison", sc.EndCondition)
		}
	}
	if sc.Assumptions.InflationRate.LessThan(decimal.NewFromFloat(-0.10)) {
		return fmt.Errorf("inflation rate cannot be less than -10%% (extreme deflation)")
	}
	if sc.Assumptions.DefaultGrowthRate.LessThan(decimal.NewFromInt(-1)) {
		return fmt.Errorf("default growth rate cannot be less than -100%%")
	}

	for i := range sc.Events {
		e := &sc.Events[i]
		if err := ip.validateEvent(sc.ID, e, accounts); err != nil {
			return fmt.Errorf("event %d (%s) validation failed: %w", i, e.Name, err)
		}
	}
	return domain.ValidateEventOrder(sc.Events)
}

func (ip *InputParser) validateEvent(scenarioID string, e *domain.SimulationEvent, accounts map[string]bool) error {
	if e.Name == "" {
		return fmt.Errorf("event name is required")
	}
	if e.ID == "" {
		e.ID = derivedID(scenarioID, "event", e.Name)
	}
	e.ScenarioID = scenarioID

	t, err := domain.ParseTriggerType(string(e.TriggerType))
	if err != nil {
		return err
	}
	e.TriggerType = t
	switch t {
	case domain.TriggerDate:
		if e.TriggerDate == nil {
			return fmt.Errorf("trigger_date is required for date triggers")
		}
	case domain.TriggerAge:
		if e.TriggerAge == nil || *e.TriggerAge < 0 {
			return fmt.Errorf("a non-negative trigger_age is required for age triggers")
		}
	case domain.TriggerCondition:
		if _, ok := calculation.ParseCondition(e.TriggerCondition); !ok {
			return fmt.Errorf("trigger_condition %q is not a valid comparison", e.TriggerCondition)
		}
	}

	if strings.TrimSpace(e.EventType) == "" {
		return fmt.Errorf("event_type is required")
	}
	e.EventType = strings.ToLower(strings.TrimSpace(e.EventType))
	if err := validateAmount(&e.AmountType, e.AmountValue, e.AmountFormula); err != nil {
		return err
	}
	if err := checkAccountRef("affected_account_id", e.AffectedAccountID, accounts); err != nil {
		return err
	}
	if err := checkAccountRef("source_account_id", e.SourceAccountID, accounts); err != nil {
		return err
	}

	if e.RecurrenceFrequency != "" {
		freq, err := domain.ParsePaymentFrequency(string(e.RecurrenceFrequency))
		if err != nil {
			return err
		}
		e.RecurrenceFrequency = freq
	}
	if e.RecurrenceEndDate != nil && e.TriggerDate != nil && e.RecurrenceEndDate.Before(*e.TriggerDate) {
		return fmt.Errorf("recurrence end date cannot be before the trigger date")
	}
	return nil
}

// CreateExampleHousehold returns a small household that exercises every input section
func (ip *InputParser) CreateExampleHousehold() *domain.Household {
	date := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	dec := func(s string) *decimal.Decimal {
		v := decimal.RequireFromString(s)
		return &v
	}
	retireAge := 60

	return &domain.Household{
		User: domain.User{ID: "alex", Name: "Alex", DateOfBirth: date(1988, time.April, 12), HomeCurrency: "USD"},
		Accounts: []domain.Account{
			{ID: "checking", Name: "Checking", Type: domain.AccountBank, Currency: "USD",
				CurrentBalance: decimal.NewFromInt(8000), InterestCompounding: domain.CompoundingNone},
			{ID: "savings", Name: "High-yield savings", Type: domain.AccountBank, Currency: "USD",
				CurrentBalance: decimal.NewFromInt(20000), InterestRateAnnual: dec("0.04"),
				InterestCompounding: domain.CompoundingDaily},
			{ID: "brokerage", Name: "Brokerage", Type: domain.AccountInvestment, Currency: "USD",
				CurrentBalance: decimal.NewFromInt(45000), InterestCompounding: domain.CompoundingMonthly},
			{ID: "car-loan", Name: "Car loan", Type: domain.AccountLoan, Currency: "USD",
				CurrentBalance: decimal.NewFromInt(12000), IsLiability: true, InterestRateAnnual: dec("0.065"),
				InterestCompounding: domain.CompoundingMonthly},
		},
		IncomeSources: []domain.IncomeSource{
			{ID: "salary", Name: "Salary", BaseAmount: decimal.NewFromInt(7500), Frequency: domain.FrequencyMonthly,
				AnnualIncreaseRate: dec("0.03"), TaxProfileID: "default-tax", IsPreTax: true, TargetAccountID: "checking"},
		},
		Expenses: []domain.ExpenseDefinition{
			{ID: "rent", Name: "Rent", AmountType: domain.AmountFixed, AmountValue: dec("2200"),
				Frequency: domain.FrequencyMonthly, InflationAdjusted: true, LinkedAccountID: "checking"},
			{ID: "living", Name: "Living costs", AmountType: domain.AmountPercentage, AmountValue: dec("0.25"),
				Frequency: domain.FrequencyMonthly, LinkedAccountID: "checking"},
			{ID: "insurance", Name: "Insurance", AmountType: domain.AmountFixed, AmountValue: dec("1200"),
				Frequency: domain.FrequencyAnnually, StartDate: date(2025, time.March, 1), LinkedAccountID: "checking"},
		},
		Contributions: []domain.InvestmentContribution{
			{ID: "index-fund", Name: "Index fund", Amount: decimal.NewFromInt(1000), Frequency: domain.FrequencyMonthly,
				SourceAccountID: "checking", TargetAccountID: "brokerage"},
			{ID: "car-payment", Name: "Car payment", Amount: decimal.NewFromInt(450), Frequency: domain.FrequencyMonthly,
				SourceAccountID: "checking", TargetAccountID: "car-loan",
				EndCondition: domain.EndCondition{Type: domain.EndUntilAccountSettled, AccountID: "car-loan"}},
		},
		TaxProfiles: []domain.TaxProfile{
			{ID: "default-tax", Name: "Default", Brackets: []domain.TaxBracket{
				{Min: decimal.Zero, Max: dec("40000"), Rate: decimal.RequireFromString("0.12")},
				{Min: decimal.NewFromInt(40000), Max: dec("100000"), Rate: decimal.RequireFromString("0.22"), BaseTax: decimal.NewFromInt(4800)},
				{Min: decimal.NewFromInt(100000), Rate: decimal.RequireFromString("0.32"), BaseTax: decimal.NewFromInt(18000)},
			}, Rebates: map[string]decimal.Decimal{"standard": decimal.NewFromInt(1500)}},
		},
		Scenarios: []domain.Scenario{
			{ID: "baseline", Name: "Baseline", StartDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
				Assumptions: domain.DefaultAssumptions(), IsBaseline: true,
				Events: []domain.SimulationEvent{
					{ID: "bonus", Name: "Signing bonus", TriggerType: domain.TriggerDate, TriggerDate: date(2025, time.June, 1),
						EventType: calculation.EventDeposit, AmountType: domain.AmountFixed, AmountValue: dec("10000"),
						AffectedAccountID: "savings", AppliesOnce: true, SortOrder: 1},
					{ID: "retire", Name: "Retirement drawdown", TriggerType: domain.TriggerAge, TriggerAge: &retireAge,
						EventType: calculation.EventWithdrawal, AmountType: domain.AmountPercentage, AmountValue: dec("0.04"),
						AffectedAccountID: "brokerage", AppliesOnce: false, RecurrenceFrequency: domain.FrequencyAnnually,
						SortOrder: 2},
				}},
		},
	}
}
