package calculation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/pkg/dateutil"
	dec "github.com/lifeplan/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// DefaultAge is used for age triggers when the user has no date of birth
const DefaultAge = 30

// SimulationInput is the state a run starts from, loaded fresh from storage
type SimulationInput struct {
	User          domain.User
	Scenario      domain.Scenario
	Accounts      []domain.Account
	IncomeSources []domain.IncomeSource
	Expenses      []domain.ExpenseDefinition
	Contributions []domain.InvestmentContribution
	TaxProfiles   []domain.TaxProfile
}

// SimulationOutput holds the rows and metadata produced by a run
type SimulationOutput struct {
	AccountRows  []domain.AccountProjection
	NetWorthRows []domain.NetWorthProjection
	Milestones   []domain.MilestoneResult
	Periods      int
	StartDate    time.Time
	EndDate      time.Time
	Warnings     []domain.Warning
}

// Event types. Unlisted types are reported and skipped.
const (
	EventOneOff            = "one_off_transaction"
	EventIncome            = "income"
	EventDeposit           = "deposit"
	EventExpense           = "expense"
	EventWithdrawal        = "withdrawal"
	EventPurchase          = "purchase"
	EventIncomeChange      = "income_change"
	EventExpenseChange     = "expense_change"
	EventAdjustment        = "adjustment"
	EventAccountAdjustment = "account_adjustment"
	EventTransfer          = "transfer"
)

// periodFlows accumulates one month of per-account flows
type periodFlows struct {
	income   map[string]decimal.Decimal
	expenses map[string]decimal.Decimal
	interest map[string]decimal.Decimal
	events   []string
}

func newPeriodFlows() *periodFlows {
	return &periodFlows{
		income:   make(map[string]decimal.Decimal),
		expenses: make(map[string]decimal.Decimal),
		interest: make(map[string]decimal.Decimal),
	}
}

// simulation is the loop-local state of one run
type simulation struct {
	ce          *SimulationEngine
	in          *SimulationInput
	assumptions domain.Assumptions
	diag        *diagnostics

	accounts     []domain.Account
	accountIndex map[string]*domain.Account
	balances     map[string]decimal.Decimal
	taxProfiles  map[string]*domain.TaxProfile

	incomes       []domain.IncomeSource
	expenses      []domain.ExpenseDefinition
	contributions []domain.InvestmentContribution
	events        []domain.SimulationEvent

	defaultIncomeAccount string
	defaultBankAccount   string
	monthlyIncome        decimal.Decimal
	monthlyExpenses      decimal.Decimal

	appliedEvents        map[string]bool
	cumulativeExpense    map[string]decimal.Decimal
	cumulativeContribute map[string]decimal.Decimal
	conditions           map[string]conditionResult
	milestones           *milestoneTracker
}

type conditionResult struct {
	cmp Comparison
	ok  bool
}

// GenerateMonthlyProjection runs the month-by-month simulation for a scenario. It does
// not touch storage; the caller persists the returned rows.
func (ce *SimulationEngine) GenerateMonthlyProjection(ctx context.Context, in *SimulationInput) (*SimulationOutput, error) {
	sim := ce.newSimulation(in)

	start := in.Scenario.StartDate
	end := in.Scenario.ResolvedEndDate()
	out := &SimulationOutput{StartDate: start}

	current := start
	months := 0
	finished := false
	for !finished && !current.After(end) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation of scenario %s interrupted at %s: %w", in.Scenario.ID, current.Format("2006-01"), err)
		}

		age := sim.age(current)
		state := sim.snapshot(current, months, age)

		// The period in which the end condition holds is still processed.
		if in.Scenario.EndCondition != "" && sim.evaluate(in.Scenario.EndCondition, state) {
			ce.Logger.Debugf("end condition %q met at %s", in.Scenario.EndCondition, current.Format("2006-01"))
			finished = true
		}

		flows := newPeriodFlows()
		sim.applyInterest(flows)
		sim.applyIncome(flows, current, months)
		sim.applyExpenses(flows, state, current, months)
		sim.applyContributions(flows, current, months)
		sim.applyEvents(flows, state, current, age)
		sim.record(out, flows, current, months)

		months++
		current = dateutil.AddMonths(start, months)
	}

	out.Periods = months
	out.EndDate = dateutil.AddMonths(start, months-1)
	out.Warnings = sim.diag.list()
	ce.Logger.Infof("scenario %s: simulated %d periods (%s to %s), %d milestones, %d warnings",
		in.Scenario.ID, out.Periods, out.StartDate.Format("2006-01-02"), out.EndDate.Format("2006-01-02"),
		len(out.Milestones), len(out.Warnings))
	return out, nil
}

func (ce *SimulationEngine) newSimulation(in *SimulationInput) *simulation {
	sim := &simulation{
		ce:                   ce,
		in:                   in,
		assumptions:          in.Scenario.Assumptions,
		diag:                 newDiagnostics(ce.Logger),
		accountIndex:         make(map[string]*domain.Account),
		balances:             make(map[string]decimal.Decimal),
		taxProfiles:          make(map[string]*domain.TaxProfile),
		appliedEvents:        make(map[string]bool),
		cumulativeExpense:    make(map[string]decimal.Decimal),
		cumulativeContribute: make(map[string]decimal.Decimal),
		conditions:           make(map[string]conditionResult),
		milestones:           newMilestoneTracker(ce.milestoneTargets()),
	}

	if in.Scenario.MalformedAssumptions {
		sim.diag.warn(domain.WarnAssumptionFallback, in.Scenario.ID, in.Scenario.StartDate,
			"scenario %q assumptions could not be decoded; using inflation %s and growth %s",
			in.Scenario.Name, sim.assumptions.InflationRate, sim.assumptions.DefaultGrowthRate)
	}

	for _, a := range in.Accounts {
		if !a.Disabled {
			sim.accounts = append(sim.accounts, a)
		}
	}
	for i := range sim.accounts {
		a := &sim.accounts[i]
		sim.accountIndex[a.ID] = a
		sim.balances[a.ID] = a.CurrentBalance
		if sim.defaultBankAccount == "" && a.Type == domain.AccountBank && !a.IsLiability {
			sim.defaultBankAccount = a.ID
		}
	}
	sim.defaultIncomeAccount = sim.defaultBankAccount
	if sim.defaultIncomeAccount == "" && len(sim.accounts) > 0 {
		sim.defaultIncomeAccount = sim.accounts[0].ID
	}

	for i := range in.TaxProfiles {
		tp := &in.TaxProfiles[i]
		if !tp.Disabled {
			sim.taxProfiles[tp.ID] = tp
		}
	}

	sim.monthlyIncome = decimal.Zero
	for _, inc := range in.IncomeSources {
		if inc.Disabled {
			continue
		}
		sim.incomes = append(sim.incomes, inc)
		sim.monthlyIncome = sim.monthlyIncome.Add(MonthlyEquivalent(inc.BaseAmount, inc.Frequency))
	}
	sim.monthlyExpenses = decimal.Zero
	for _, exp := range in.Expenses {
		if exp.Disabled {
			continue
		}
		sim.expenses = append(sim.expenses, exp)
		if exp.AmountType == domain.AmountFixed && exp.AmountValue != nil {
			sim.monthlyExpenses = sim.monthlyExpenses.Add(MonthlyEquivalent(*exp.AmountValue, exp.Frequency))
		}
	}
	for _, c := range in.Contributions {
		if !c.Disabled {
			sim.contributions = append(sim.contributions, c)
		}
	}
	sim.events = in.Scenario.OrderedEvents()
	return sim
}

func (s *simulation) age(current time.Time) int {
	if age, ok := s.in.User.Age(current); ok {
		return age
	}
	return DefaultAge
}

// totals returns assets (non-liability balances) and liabilities (absolute owed amounts).
func (s *simulation) totals() (decimal.Decimal, decimal.Decimal) {
	assets, liabilities := decimal.Zero, decimal.Zero
	for _, a := range s.accounts {
		bal := s.balances[a.ID]
		if a.IsLiability {
			liabilities = liabilities.Add(bal.Abs())
		} else {
			assets = assets.Add(bal)
		}
	}
	return assets, liabilities
}

func (s *simulation) snapshot(current time.Time, months, age int) SimulationState {
	assets, liabilities := s.totals()
	balances := make(map[string]decimal.Decimal, len(s.balances))
	for id, b := range s.balances {
		balances[id] = b
	}
	return SimulationState{
		NetWorth:             assets.Sub(liabilities),
		TotalAssets:          assets,
		TotalLiabilities:     liabilities,
		Age:                  age,
		CurrentDate:          current,
		MonthsElapsed:        months,
		TotalMonthlyIncome:   s.monthlyIncome,
		TotalMonthlyExpenses: s.monthlyExpenses,
		AccountBalances:      balances,
	}
}

// evaluate parses each distinct expression once per run.
func (s *simulation) evaluate(expr string, state SimulationState) bool {
	r, ok := s.conditions[expr]
	if !ok {
		r.cmp, r.ok = ParseCondition(expr)
		s.conditions[expr] = r
	}
	return r.ok && r.cmp.Evaluate(state)
}

func (s *simulation) credit(id string, amount decimal.Decimal) {
	s.balances[id] = s.balances[id].Add(amount)
}

func (s *simulation) debit(id string, amount decimal.Decimal) {
	s.balances[id] = s.balances[id].Sub(amount)
}

// resolveAccount returns the explicit account if it exists, else the fallback.
// An explicit but unknown ID is reported and yields no account.
func (s *simulation) resolveAccount(explicit, fallback, owner string, current time.Time) (string, bool) {
	if explicit != "" {
		if _, ok := s.accountIndex[explicit]; ok {
			return explicit, true
		}
		s.diag.warn(domain.WarnUnknownAccount, owner+"|"+explicit, current,
			"%s references unknown account %s; skipped", owner, explicit)
		return "", false
	}
	if fallback == "" {
		s.diag.warn(domain.WarnNoTargetAccount, owner, current,
			"%s has no linked account and no default bank account exists; skipped", owner)
		return "", false
	}
	return fallback, true
}

func (s *simulation) applyInterest(flows *periodFlows) {
	for _, a := range s.accounts {
		rate := EffectiveRate(&a, s.assumptions)
		interest := MonthlyInterest(s.balances[a.ID], rate, a.InterestCompounding)
		s.credit(a.ID, interest)
		flows.interest[a.ID] = interest
	}
}

// growth scales an amount by (1 + rate)^(months/12) after the first period.
func growth(amount decimal.Decimal, rate *decimal.Decimal, months int) decimal.Decimal {
	if rate == nil || months == 0 {
		return amount
	}
	return amount.Mul(dec.GrowthFactor(*rate, float64(months)/12))
}

func (s *simulation) applyIncome(flows *periodFlows, current time.Time, months int) {
	for _, inc := range s.incomes {
		if !ShouldApply(inc.Frequency, current, inc.StartDate) {
			continue
		}

		amount := growth(inc.BaseAmount, inc.AnnualIncreaseRate, months)
		if inc.IsPreTax && inc.TaxProfileID != "" {
			profile, ok := s.taxProfiles[inc.TaxProfileID]
			if !ok {
				s.diag.warn(domain.WarnMissingTaxProfile, inc.ID, current,
					"income %q references missing tax profile %s; applied untaxed", inc.Name, inc.TaxProfileID)
			} else {
				s.reportTaxFallback(profile, current)
				amount = s.ce.TaxCalc.NetIncome(amount, inc.Frequency, profile)
			}
		}

		target, ok := s.resolveAccount(inc.TargetAccountID, s.defaultIncomeAccount, fmt.Sprintf("income %q", inc.Name), current)
		if !ok {
			continue
		}
		s.credit(target, amount)
		flows.income[target] = flows.income[target].Add(amount)
	}
}

func (s *simulation) reportTaxFallback(profile *domain.TaxProfile, current time.Time) {
	if profile.MalformedBrackets {
		s.diag.warn(domain.WarnTaxFallback, profile.ID, current,
			"tax profile %q brackets could not be decoded; using flat %s rate",
			profile.Name, s.ce.TaxCalc.FallbackRate.String())
	}
	if profile.MalformedRebates {
		s.diag.warn(domain.WarnRebateFallback, profile.ID, current,
			"tax profile %q rebates could not be decoded; ignoring rebates", profile.Name)
	}
}

// endConditionAllows reports whether a recurring item may still apply.
func (s *simulation) endConditionAllows(ec domain.EndCondition, current time.Time, cumulative decimal.Decimal) bool {
	switch ec.Type {
	case domain.EndUntilAccountSettled:
		if bal, ok := s.balances[ec.AccountID]; ok && ec.AccountID != "" {
			return bal.IsPositive()
		}
		return true
	case domain.EndUntilDate:
		if ec.EndDate != nil {
			return !current.After(*ec.EndDate)
		}
		return true
	case domain.EndUntilAmount:
		if ec.AmountThreshold != nil {
			return cumulative.LessThan(*ec.AmountThreshold)
		}
		return true
	default:
		return true
	}
}

// formulaAmount delegates to the configured evaluator; failures resolve to zero.
func (s *simulation) formulaAmount(owner, formula string, state SimulationState) decimal.Decimal {
	v, err := s.ce.Formulas.Evaluate(formula, state)
	if err != nil {
		s.diag.warn(domain.WarnFormulaUnsupported, owner, state.CurrentDate,
			"%s formula %q could not be evaluated (%v); using 0", owner, formula, err)
		return decimal.Zero
	}
	return v
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (s *simulation) expenseAmount(exp *domain.ExpenseDefinition, state SimulationState, months int) decimal.Decimal {
	var amount decimal.Decimal
	switch exp.AmountType {
	case domain.AmountPercentage:
		amount = valueOrZero(exp.AmountValue).Mul(state.TotalMonthlyIncome)
	case domain.AmountFormula:
		amount = s.formulaAmount(fmt.Sprintf("expense %q", exp.Name), exp.AmountFormula, state)
	default:
		amount = valueOrZero(exp.AmountValue)
	}
	if exp.InflationAdjusted && months > 0 {
		amount = amount.Mul(dec.GrowthFactor(s.assumptions.InflationRate, float64(months)/12))
	}
	return amount
}

func (s *simulation) applyExpenses(flows *periodFlows, state SimulationState, current time.Time, months int) {
	for i := range s.expenses {
		exp := &s.expenses[i]
		if !ShouldApply(exp.Frequency, current, exp.StartDate) {
			continue
		}
		if !s.endConditionAllows(exp.EndCondition, current, s.cumulativeExpense[exp.ID]) {
			continue
		}

		amount := s.expenseAmount(exp, state, months)
		s.cumulativeExpense[exp.ID] = s.cumulativeExpense[exp.ID].Add(amount)

		source, ok := s.resolveAccount(exp.LinkedAccountID, s.defaultBankAccount, fmt.Sprintf("expense %q", exp.Name), current)
		if !ok {
			continue
		}
		s.debit(source, amount)
		flows.expenses[source] = flows.expenses[source].Add(amount)
	}
}

func (s *simulation) applyContributions(flows *periodFlows, current time.Time, months int) {
	for i := range s.contributions {
		c := &s.contributions[i]
		if !ShouldApply(c.Frequency, current, c.StartDate) {
			continue
		}
		if !s.endConditionAllows(c.EndCondition, current, s.cumulativeContribute[c.ID]) {
			continue
		}

		amount := growth(c.Amount, c.AnnualIncreaseRate, months)
		s.cumulativeContribute[c.ID] = s.cumulativeContribute[c.ID].Add(amount)
		owner := fmt.Sprintf("contribution %q", c.Name)

		if c.SourceAccountID != "" {
			if _, ok := s.accountIndex[c.SourceAccountID]; ok {
				s.debit(c.SourceAccountID, amount)
				flows.expenses[c.SourceAccountID] = flows.expenses[c.SourceAccountID].Add(amount)
			} else {
				s.diag.warn(domain.WarnUnknownAccount, owner+"|"+c.SourceAccountID, current,
					"%s references unknown source account %s", owner, c.SourceAccountID)
			}
		}

		if c.TargetAccountID == "" {
			continue
		}
		target, ok := s.accountIndex[c.TargetAccountID]
		if !ok {
			s.diag.warn(domain.WarnUnknownAccount, owner+"|"+c.TargetAccountID, current,
				"%s references unknown target account %s", owner, c.TargetAccountID)
			continue
		}
		if target.IsLiability {
			// Paying down debt; a settled liability stays at zero.
			s.balances[target.ID] = decimal.Max(decimal.Zero, s.balances[target.ID].Sub(amount))
		} else {
			s.credit(target.ID, amount)
		}
		flows.income[target.ID] = flows.income[target.ID].Add(amount)
	}
}

func (s *simulation) eventTriggered(evt *domain.SimulationEvent, state SimulationState, current time.Time, age int) bool {
	switch evt.TriggerType {
	case domain.TriggerDate:
		return evt.TriggerDate != nil && !current.Before(*evt.TriggerDate)
	case domain.TriggerAge:
		return evt.TriggerAge != nil && age >= *evt.TriggerAge
	case domain.TriggerCondition:
		return evt.TriggerCondition != "" && s.evaluate(evt.TriggerCondition, state)
	default:
		return false
	}
}

func (s *simulation) eventAmount(evt *domain.SimulationEvent, state SimulationState) decimal.Decimal {
	switch evt.AmountType {
	case domain.AmountPercentage:
		return valueOrZero(evt.AmountValue).Mul(state.NetWorth)
	case domain.AmountFormula:
		return s.formulaAmount(fmt.Sprintf("event %q", evt.Name), evt.AmountFormula, state)
	default:
		return valueOrZero(evt.AmountValue)
	}
}

func (s *simulation) applyEvents(flows *periodFlows, state SimulationState, current time.Time, age int) {
	for i := range s.events {
		evt := &s.events[i]
		if evt.AppliesOnce && s.appliedEvents[evt.ID] {
			continue
		}
		if !s.eventTriggered(evt, state, current, age) {
			continue
		}
		if !evt.AppliesOnce && evt.RecurrenceFrequency != "" {
			if !ShouldApply(evt.RecurrenceFrequency, current, evt.TriggerDate) {
				continue
			}
			if evt.RecurrenceEndDate != nil && current.After(*evt.RecurrenceEndDate) {
				continue
			}
		}

		if evt.AppliesOnce {
			s.appliedEvents[evt.ID] = true
		}
		// A fired event is listed even when its effect was skipped with a warning.
		s.applyEvent(evt, flows, state, current)
		flows.events = append(flows.events, evt.Name)
	}
}

// applyEvent mutates balances for a fired event. Unresolvable accounts and unknown
// types are reported and leave balances untouched.
func (s *simulation) applyEvent(evt *domain.SimulationEvent, flows *periodFlows, state SimulationState, current time.Time) {
	owner := fmt.Sprintf("event %q", evt.Name)
	target, ok := s.resolveAccount(evt.AffectedAccountID, s.defaultBankAccount, owner, current)
	if !ok {
		return
	}
	amount := s.eventAmount(evt, state)

	switch strings.ToLower(strings.TrimSpace(evt.EventType)) {
	case EventOneOff, EventIncome, EventDeposit:
		s.credit(target, amount)
		flows.income[target] = flows.income[target].Add(amount)
	case EventExpense, EventWithdrawal, EventPurchase:
		s.debit(target, amount)
		flows.expenses[target] = flows.expenses[target].Add(amount)
	case EventIncomeChange:
		s.credit(target, amount)
	case EventExpenseChange:
		s.debit(target, amount)
	case EventAdjustment, EventAccountAdjustment:
		s.balances[target] = amount
	case EventTransfer:
		if evt.SourceAccountID == "" {
			s.diag.warn(domain.WarnTransferNoSource, evt.ID, current,
				"%s transfers into %s without a source account; only the target is credited", owner, target)
		} else if _, known := s.accountIndex[evt.SourceAccountID]; known {
			s.debit(evt.SourceAccountID, amount)
			flows.expenses[evt.SourceAccountID] = flows.expenses[evt.SourceAccountID].Add(amount)
		} else {
			s.diag.warn(domain.WarnUnknownAccount, owner+"|"+evt.SourceAccountID, current,
				"%s references unknown source account %s; skipped", owner, evt.SourceAccountID)
			return
		}
		s.credit(target, amount)
		flows.income[target] = flows.income[target].Add(amount)
	default:
		s.diag.warn(domain.WarnUnknownEventType, evt.ID, current,
			"%s has unknown event type %q; skipped", owner, evt.EventType)
	}
}

// record emits one AccountProjection per account and one NetWorthProjection for the period.
func (s *simulation) record(out *SimulationOutput, flows *periodFlows, current time.Time, months int) {
	scenarioID := s.in.Scenario.ID
	totalAssets, totalLiabilities := decimal.Zero, decimal.Zero
	byType := make(map[string]decimal.Decimal)
	byCurrency := make(map[string]decimal.Decimal)

	var applied []string
	if len(flows.events) > 0 {
		applied = append([]string(nil), flows.events...)
	}

	for _, a := range s.accounts {
		balance := s.balances[a.ID]
		home := balance // no FX conversion; home currency is identity
		display, displayHome := balance, home
		typeKey := string(a.Type)

		if a.IsLiability {
			display, displayHome = balance.Abs().Neg(), home.Abs().Neg()
			totalLiabilities = totalLiabilities.Add(home.Abs())
			byType[typeKey] = byType[typeKey].Sub(home.Abs())
		} else {
			totalAssets = totalAssets.Add(home)
			byType[typeKey] = byType[typeKey].Add(home)
		}
		byCurrency[a.Currency] = byCurrency[a.Currency].Add(display)

		out.AccountRows = append(out.AccountRows, domain.AccountProjection{
			ScenarioID:          scenarioID,
			AccountID:           a.ID,
			PeriodDate:          current,
			Balance:             display,
			BalanceHomeCurrency: displayHome,
			PeriodIncome:        flows.income[a.ID],
			PeriodExpenses:      flows.expenses[a.ID],
			PeriodInterest:      flows.interest[a.ID],
			EventsApplied:       applied,
		})
	}

	netWorth := totalAssets.Sub(totalLiabilities)
	reached, labels := s.milestones.observe(current, netWorth, months)
	out.Milestones = append(out.Milestones, reached...)
	for _, m := range reached {
		s.ce.Logger.Debugf("scenario %s: %s on %s", scenarioID, m.Description, current.Format("2006-01"))
	}

	out.NetWorthRows = append(out.NetWorthRows, domain.NetWorthProjection{
		ScenarioID:          scenarioID,
		PeriodDate:          current,
		TotalAssets:         totalAssets,
		TotalLiabilities:    totalLiabilities,
		NetWorth:            netWorth,
		BreakdownByType:     byType,
		BreakdownByCurrency: byCurrency,
		MilestonesReached:   labels,
	})
}
