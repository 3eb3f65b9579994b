// Package store persists households, scenarios and projection rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteStore is the SQLite-backed repository.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveHousehold writes a household in one transaction. The user and scenarios are
// upserted so existing projections survive; accounts, income, expenses,
// contributions, tax profiles and each scenario's events are replaced.
func (s *SQLiteStore) SaveHousehold(ctx context.Context, h *domain.Household) error {
	for _, sc := range h.Scenarios {
		if err := domain.ValidateEventOrder(sc.Events); err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	u := h.User
	_, err = tx.ExecContext(ctx, `INSERT INTO users (id, name, date_of_birth, home_currency)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			date_of_birth = excluded.date_of_birth, home_currency = excluded.home_currency`,
		u.ID, u.Name, nullableDate(u.DateOfBirth), u.HomeCurrency)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	for _, table := range []string{"accounts", "income_sources", "expense_definitions", "investment_contributions", "tax_profiles"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", u.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, a := range h.Accounts {
		_, err = tx.ExecContext(ctx, `INSERT INTO accounts
			(id, user_id, position, name, account_type, currency, current_balance, is_liability,
			 interest_rate_annual, interest_compounding, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, u.ID, i, a.Name, string(a.Type), a.Currency, a.CurrentBalance.String(), boolToInt(a.IsLiability),
			nullableDecimal(a.InterestRateAnnual), string(a.InterestCompounding), boolToInt(!a.Disabled))
		if err != nil {
			return fmt.Errorf("saving account %q: %w", a.Name, err)
		}
	}

	for i, inc := range h.IncomeSources {
		_, err = tx.ExecContext(ctx, `INSERT INTO income_sources
			(id, user_id, position, name, base_amount, payment_frequency, annual_increase_rate,
			 tax_profile_id, is_pre_tax, target_account_id, start_date, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inc.ID, u.ID, i, inc.Name, inc.BaseAmount.String(), string(inc.Frequency), nullableDecimal(inc.AnnualIncreaseRate),
			inc.TaxProfileID, boolToInt(inc.IsPreTax), inc.TargetAccountID, nullableDate(inc.StartDate), boolToInt(!inc.Disabled))
		if err != nil {
			return fmt.Errorf("saving income source %q: %w", inc.Name, err)
		}
	}

	for i, e := range h.Expenses {
		_, err = tx.ExecContext(ctx, `INSERT INTO expense_definitions
			(id, user_id, position, name, amount_type, amount_value, amount_formula, frequency,
			 inflation_adjusted, linked_account_id, start_date, end_condition_type, end_account_id,
			 end_date, end_amount_threshold, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, u.ID, i, e.Name, string(e.AmountType), nullableDecimal(e.AmountValue), e.AmountFormula, string(e.Frequency),
			boolToInt(e.InflationAdjusted), e.LinkedAccountID, nullableDate(e.StartDate), endConditionType(e.EndCondition),
			e.EndCondition.AccountID, nullableDate(e.EndCondition.EndDate), nullableDecimal(e.EndCondition.AmountThreshold),
			boolToInt(!e.Disabled))
		if err != nil {
			return fmt.Errorf("saving expense %q: %w", e.Name, err)
		}
	}

	for i, c := range h.Contributions {
		_, err = tx.ExecContext(ctx, `INSERT INTO investment_contributions
			(id, user_id, position, name, amount, frequency, annual_increase_rate, source_account_id,
			 target_account_id, start_date, end_condition_type, end_account_id, end_date,
			 end_amount_threshold, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, u.ID, i, c.Name, c.Amount.String(), string(c.Frequency), nullableDecimal(c.AnnualIncreaseRate),
			c.SourceAccountID, c.TargetAccountID, nullableDate(c.StartDate), endConditionType(c.EndCondition),
			c.EndCondition.AccountID, nullableDate(c.EndCondition.EndDate), nullableDecimal(c.EndCondition.AmountThreshold),
			boolToInt(!c.Disabled))
		if err != nil {
			return fmt.Errorf("saving contribution %q: %w", c.Name, err)
		}
	}

	for _, tp := range h.TaxProfiles {
		brackets, err := domain.EncodeTaxBrackets(tp.Brackets)
		if err != nil {
			return err
		}
		rebates, err := domain.EncodeRebates(tp.Rebates)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO tax_profiles
			(id, user_id, name, brackets, flat_rate, flat_monthly_cap, rebates, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tp.ID, u.ID, tp.Name, brackets, nullableDecimal(tp.FlatRate), nullableDecimal(tp.FlatMonthlyCap),
			rebates, boolToInt(!tp.Disabled))
		if err != nil {
			return fmt.Errorf("saving tax profile %q: %w", tp.Name, err)
		}
	}

	for _, sc := range h.Scenarios {
		if err := saveScenario(ctx, tx, u.ID, &sc); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func endConditionType(ec domain.EndCondition) string {
	if ec.Type == "" {
		return string(domain.EndNone)
	}
	return string(ec.Type)
}

func saveScenario(ctx context.Context, tx *sql.Tx, userID string, sc *domain.Scenario) error {
	assumptions, err := domain.EncodeAssumptions(sc.Assumptions)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO simulation_scenarios
		(id, user_id, name, description, start_date, end_date, end_condition, base_assumptions, is_baseline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description,
			start_date = excluded.start_date, end_date = excluded.end_date,
			end_condition = excluded.end_condition, base_assumptions = excluded.base_assumptions,
			is_baseline = excluded.is_baseline`,
		sc.ID, userID, sc.Name, sc.Description, fmtDate(sc.StartDate), nullableDate(sc.EndDate),
		sc.EndCondition, assumptions, boolToInt(sc.IsBaseline))
	if err != nil {
		return fmt.Errorf("saving scenario %q: %w", sc.Name, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM simulation_events WHERE scenario_id = ?", sc.ID); err != nil {
		return fmt.Errorf("clearing events of scenario %q: %w", sc.Name, err)
	}
	for _, e := range sc.Events {
		_, err = tx.ExecContext(ctx, `INSERT INTO simulation_events
			(id, scenario_id, name, description, trigger_type, trigger_date, trigger_age, trigger_condition,
			 event_type, amount_type, amount_value, amount_formula, affected_account_id, source_account_id,
			 applies_once, recurrence_frequency, recurrence_end_date, sort_order, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, sc.ID, e.Name, e.Description, string(e.TriggerType), nullableDate(e.TriggerDate), nullableInt(e.TriggerAge),
			e.TriggerCondition, e.EventType, string(e.AmountType), nullableDecimal(e.AmountValue), e.AmountFormula,
			e.AffectedAccountID, e.SourceAccountID, boolToInt(e.AppliesOnce), string(e.RecurrenceFrequency),
			nullableDate(e.RecurrenceEndDate), e.SortOrder, boolToInt(!e.Disabled))
		if err != nil {
			return fmt.Errorf("saving event %q: %w", e.Name, err)
		}
	}
	return nil
}

// GetUser loads a user.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	var dob sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT id, name, date_of_birth, home_currency FROM users WHERE id = ?", userID).
		Scan(&u.ID, &u.Name, &dob, &u.HomeCurrency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	if u.DateOfBirth, err = parseNullableDate(dob); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every stored user ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, date_of_birth, home_currency FROM users ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		var dob sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &dob, &u.HomeCurrency); err != nil {
			return nil, err
		}
		if u.DateOfBirth, err = parseNullableDate(dob); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

const scenarioColumns = `id, user_id, name, description, start_date, end_date, end_condition,
	base_assumptions, is_baseline, last_run_at`

func scanScenario(row interface{ Scan(...any) error }) (*domain.Scenario, error) {
	var sc domain.Scenario
	var start, assumptions string
	var end, lastRun sql.NullString
	var baseline int
	if err := row.Scan(&sc.ID, &sc.UserID, &sc.Name, &sc.Description, &start, &end, &sc.EndCondition,
		&assumptions, &baseline, &lastRun); err != nil {
		return nil, err
	}
	var err error
	if sc.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if sc.EndDate, err = parseNullableDate(end); err != nil {
		return nil, err
	}
	sc.IsBaseline = baseline != 0
	if lastRun.Valid && lastRun.String != "" {
		t, err := time.Parse(time.RFC3339, lastRun.String)
		if err == nil {
			sc.LastRunAt = &t
		}
	}
	a, err := domain.DecodeAssumptions(assumptions)
	sc.Assumptions = a
	sc.MalformedAssumptions = err != nil
	return &sc, nil
}

// GetScenario loads a user's scenario with its active events in sort order.
func (s *SQLiteStore) GetScenario(ctx context.Context, userID, scenarioID string) (*domain.Scenario, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scenarioColumns+" FROM simulation_scenarios WHERE id = ? AND user_id = ?",
		scenarioID, userID)
	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, scenarioID)
	}
	if err != nil {
		return nil, err
	}
	if sc.Events, err = s.listEvents(ctx, sc.ID); err != nil {
		return nil, err
	}
	return sc, nil
}

// ListScenarios returns a user's scenarios without events, baseline first.
func (s *SQLiteStore) ListScenarios(ctx context.Context, userID string) ([]domain.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+scenarioColumns+
		" FROM simulation_scenarios WHERE user_id = ? ORDER BY is_baseline DESC, name", userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// DeleteScenario removes a scenario; its events and projections cascade.
func (s *SQLiteStore) DeleteScenario(ctx context.Context, userID, scenarioID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM simulation_scenarios WHERE id = ? AND user_id = ?", scenarioID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, scenarioID)
	}
	return nil
}

func (s *SQLiteStore) listEvents(ctx context.Context, scenarioID string) ([]domain.SimulationEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, scenario_id, name, description, trigger_type, trigger_date, trigger_age, trigger_condition,
		event_type, amount_type, amount_value, amount_formula, affected_account_id, source_account_id,
		applies_once, recurrence_frequency, recurrence_end_date, sort_order
		FROM simulation_events WHERE scenario_id = ? AND is_active = 1 ORDER BY sort_order, id`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.SimulationEvent
	for rows.Next() {
		var e domain.SimulationEvent
		var triggerType, amountType, recurrence string
		var triggerDate, recurrenceEnd sql.NullString
		var triggerAge sql.NullInt64
		var amount decimal.NullDecimal
		var once int
		if err := rows.Scan(&e.ID, &e.ScenarioID, &e.Name, &e.Description, &triggerType, &triggerDate, &triggerAge,
			&e.TriggerCondition, &e.EventType, &amountType, &amount, &e.AmountFormula, &e.AffectedAccountID,
			&e.SourceAccountID, &once, &recurrence, &recurrenceEnd, &e.SortOrder); err != nil {
			return nil, err
		}
		e.TriggerType = domain.TriggerType(triggerType)
		e.AmountType = domain.AmountType(amountType)
		e.RecurrenceFrequency = domain.PaymentFrequency(recurrence)
		e.AmountValue = decimalPtr(amount)
		e.AppliesOnce = once != 0
		if triggerAge.Valid {
			age := int(triggerAge.Int64)
			e.TriggerAge = &age
		}
		if e.TriggerDate, err = parseNullableDate(triggerDate); err != nil {
			return nil, err
		}
		if e.RecurrenceEndDate, err = parseNullableDate(recurrenceEnd); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListAccounts returns a user's active accounts in import order.
func (s *SQLiteStore) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, user_id, name, account_type, currency, current_balance, is_liability,
		interest_rate_annual, interest_compounding
		FROM accounts WHERE user_id = ? AND is_active = 1 ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		var accountType, compounding string
		var liability int
		var rate decimal.NullDecimal
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &accountType, &a.Currency, &a.CurrentBalance,
			&liability, &rate, &compounding); err != nil {
			return nil, err
		}
		a.Type = domain.AccountType(accountType)
		a.InterestCompounding = domain.CompoundingFrequency(compounding)
		a.IsLiability = liability != 0
		a.InterestRateAnnual = decimalPtr(rate)
		out = append(out, a)
	}
	return out, rows.Err()
}

// AccountNames maps every account ID of the user, active or not, to its name.
func (s *SQLiteStore) AccountNames(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM accounts WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// ListIncomeSources returns a user's active income sources.
func (s *SQLiteStore) ListIncomeSources(ctx context.Context, userID string) ([]domain.IncomeSource, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, user_id, name, base_amount, payment_frequency, annual_increase_rate, tax_profile_id,
		is_pre_tax, target_account_id, start_date
		FROM income_sources WHERE user_id = ? AND is_active = 1 ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.IncomeSource
	for rows.Next() {
		var inc domain.IncomeSource
		var freq string
		var increase decimal.NullDecimal
		var preTax int
		var start sql.NullString
		if err := rows.Scan(&inc.ID, &inc.UserID, &inc.Name, &inc.BaseAmount, &freq, &increase,
			&inc.TaxProfileID, &preTax, &inc.TargetAccountID, &start); err != nil {
			return nil, err
		}
		inc.Frequency = domain.PaymentFrequency(freq)
		inc.AnnualIncreaseRate = decimalPtr(increase)
		inc.IsPreTax = preTax != 0
		if inc.StartDate, err = parseNullableDate(start); err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func scanEndCondition(ecType, accountID string, endDate sql.NullString, threshold decimal.NullDecimal) (domain.EndCondition, error) {
	ec := domain.EndCondition{
		Type:            domain.EndConditionType(ecType),
		AccountID:       accountID,
		AmountThreshold: decimalPtr(threshold),
	}
	var err error
	ec.EndDate, err = parseNullableDate(endDate)
	return ec, err
}

// ListExpenses returns a user's active expense definitions.
func (s *SQLiteStore) ListExpenses(ctx context.Context, userID string) ([]domain.ExpenseDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, user_id, name, amount_type, amount_value, amount_formula, frequency, inflation_adjusted,
		linked_account_id, start_date, end_condition_type, end_account_id, end_date, end_amount_threshold
		FROM expense_definitions WHERE user_id = ? AND is_active = 1 ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ExpenseDefinition
	for rows.Next() {
		var e domain.ExpenseDefinition
		var amountType, freq, ecType, ecAccount string
		var value, threshold decimal.NullDecimal
		var inflation int
		var start, endDate sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &amountType, &value, &e.AmountFormula, &freq, &inflation,
			&e.LinkedAccountID, &start, &ecType, &ecAccount, &endDate, &threshold); err != nil {
			return nil, err
		}
		e.AmountType = domain.AmountType(amountType)
		e.AmountValue = decimalPtr(value)
		e.Frequency = domain.PaymentFrequency(freq)
		e.InflationAdjusted = inflation != 0
		if e.StartDate, err = parseNullableDate(start); err != nil {
			return nil, err
		}
		if e.EndCondition, err = scanEndCondition(ecType, ecAccount, endDate, threshold); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListContributions returns a user's active investment contributions.
func (s *SQLiteStore) ListContributions(ctx context.Context, userID string) ([]domain.InvestmentContribution, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, user_id, name, amount, frequency, annual_increase_rate, source_account_id, target_account_id,
		start_date, end_condition_type, end_account_id, end_date, end_amount_threshold
		FROM investment_contributions WHERE user_id = ? AND is_active = 1 ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.InvestmentContribution
	for rows.Next() {
		var c domain.InvestmentContribution
		var freq, ecType, ecAccount string
		var increase, threshold decimal.NullDecimal
		var start, endDate sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Amount, &freq, &increase, &c.SourceAccountID,
			&c.TargetAccountID, &start, &ecType, &ecAccount, &endDate, &threshold); err != nil {
			return nil, err
		}
		c.Frequency = domain.PaymentFrequency(freq)
		c.AnnualIncreaseRate = decimalPtr(increase)
		if c.StartDate, err = parseNullableDate(start); err != nil {
			return nil, err
		}
		if c.EndCondition, err = scanEndCondition(ecType, ecAccount, endDate, threshold); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListTaxProfiles returns a user's active tax profiles. Undecodable bracket or rebate
// JSON is flagged on the profile rather than failing the load.
func (s *SQLiteStore) ListTaxProfiles(ctx context.Context, userID string) ([]domain.TaxProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, user_id, name, brackets, flat_rate, flat_monthly_cap, rebates
		FROM tax_profiles WHERE user_id = ? AND is_active = 1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.TaxProfile
	for rows.Next() {
		var id, uid, name, brackets, rebates string
		var flatRate, flatCap decimal.NullDecimal
		if err := rows.Scan(&id, &uid, &name, &brackets, &flatRate, &flatCap, &rebates); err != nil {
			return nil, err
		}
		tp := domain.NewTaxProfileFromJSON(id, name, brackets, rebates)
		tp.UserID = uid
		tp.FlatRate = decimalPtr(flatRate)
		tp.FlatMonthlyCap = decimalPtr(flatCap)
		out = append(out, tp)
	}
	return out, rows.Err()
}

// SaveProjections writes a run's rows and stamps the scenario's last run time in a
// single transaction.
func (s *SQLiteStore) SaveProjections(ctx context.Context, batch domain.ProjectionBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if batch.Replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM account_projections WHERE scenario_id = ?", batch.ScenarioID); err != nil {
			return fmt.Errorf("deleting account projections: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM net_worth_projections WHERE scenario_id = ?", batch.ScenarioID); err != nil {
			return fmt.Errorf("deleting net worth projections: %w", err)
		}
	}

	accStmt, err := tx.PrepareContext(ctx, `INSERT INTO account_projections
		(scenario_id, account_id, period_date, balance, balance_home_currency, period_income,
		 period_expenses, period_interest, events_applied)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = accStmt.Close() }()

	for _, r := range batch.AccountRows {
		events, err := encodeList(r.EventsApplied)
		if err != nil {
			return err
		}
		if _, err := accStmt.ExecContext(ctx, batch.ScenarioID, r.AccountID, fmtDate(r.PeriodDate), r.Balance.String(),
			r.BalanceHomeCurrency.String(), r.PeriodIncome.String(), r.PeriodExpenses.String(),
			r.PeriodInterest.String(), events); err != nil {
			return fmt.Errorf("inserting account projection: %w", err)
		}
	}

	nwStmt, err := tx.PrepareContext(ctx, `INSERT INTO net_worth_projections
		(scenario_id, period_date, total_assets, total_liabilities, net_worth,
		 breakdown_by_type, breakdown_by_currency, milestones_reached)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = nwStmt.Close() }()

	for _, r := range batch.NetWorthRows {
		byType, err := encodeBreakdown(r.BreakdownByType)
		if err != nil {
			return err
		}
		byCurrency, err := encodeBreakdown(r.BreakdownByCurrency)
		if err != nil {
			return err
		}
		milestones, err := encodeList(r.MilestonesReached)
		if err != nil {
			return err
		}
		if _, err := nwStmt.ExecContext(ctx, batch.ScenarioID, fmtDate(r.PeriodDate), r.TotalAssets.String(),
			r.TotalLiabilities.String(), r.NetWorth.String(), byType, byCurrency, milestones); err != nil {
			return fmt.Errorf("inserting net worth projection: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "UPDATE simulation_scenarios SET last_run_at = ? WHERE id = ?",
		batch.RunAt.UTC().Format(time.RFC3339), batch.ScenarioID)
	if err != nil {
		return fmt.Errorf("updating last run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, batch.ScenarioID)
	}

	return tx.Commit()
}

func dateBounds(query string, args []any, from, to *time.Time) (string, []any) {
	if from != nil {
		query += " AND period_date >= ?"
		args = append(args, fmtDate(*from))
	}
	if to != nil {
		query += " AND period_date <= ?"
		args = append(args, fmtDate(*to))
	}
	return query, args
}

// ListNetWorthProjections returns a scenario's net worth rows in date order.
func (s *SQLiteStore) ListNetWorthProjections(ctx context.Context, scenarioID string, from, to *time.Time) ([]domain.NetWorthProjection, error) {
	query, args := dateBounds(`SELECT scenario_id, period_date, total_assets, total_liabilities, net_worth,
		breakdown_by_type, breakdown_by_currency, milestones_reached
		FROM net_worth_projections WHERE scenario_id = ?`, []any{scenarioID}, from, to)
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY period_date, id", args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.NetWorthProjection
	for rows.Next() {
		var r domain.NetWorthProjection
		var period, byType, byCurrency string
		var milestones sql.NullString
		if err := rows.Scan(&r.ScenarioID, &period, &r.TotalAssets, &r.TotalLiabilities, &r.NetWorth,
			&byType, &byCurrency, &milestones); err != nil {
			return nil, err
		}
		if r.PeriodDate, err = parseDate(period); err != nil {
			return nil, err
		}
		if r.BreakdownByType, err = decodeBreakdown(byType); err != nil {
			return nil, fmt.Errorf("decoding type breakdown: %w", err)
		}
		if r.BreakdownByCurrency, err = decodeBreakdown(byCurrency); err != nil {
			return nil, fmt.Errorf("decoding currency breakdown: %w", err)
		}
		if r.MilestonesReached, err = decodeList(milestones); err != nil {
			return nil, fmt.Errorf("decoding milestones: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAccountProjections returns a scenario's account rows in date order, optionally
// for a single account.
func (s *SQLiteStore) ListAccountProjections(ctx context.Context, scenarioID string, from, to *time.Time, accountID string) ([]domain.AccountProjection, error) {
	query, args := dateBounds(`SELECT scenario_id, account_id, period_date, balance, balance_home_currency,
		period_income, period_expenses, period_interest, events_applied
		FROM account_projections WHERE scenario_id = ?`, []any{scenarioID}, from, to)
	if accountID != "" {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY period_date, id", args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.AccountProjection
	for rows.Next() {
		var r domain.AccountProjection
		var period string
		var events sql.NullString
		if err := rows.Scan(&r.ScenarioID, &r.AccountID, &period, &r.Balance, &r.BalanceHomeCurrency,
			&r.PeriodIncome, &r.PeriodExpenses, &r.PeriodInterest, &events); err != nil {
			return nil, err
		}
		if r.PeriodDate, err = parseDate(period); err != nil {
			return nil, err
		}
		if r.EventsApplied, err = decodeList(events); err != nil {
			return nil, fmt.Errorf("decoding applied events: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProjectionCounts returns the number of account and net worth rows for a scenario.
func (s *SQLiteStore) ProjectionCounts(ctx context.Context, scenarioID string) (int, int, error) {
	var accounts, netWorth int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account_projections WHERE scenario_id = ?", scenarioID).Scan(&accounts); err != nil {
		return 0, 0, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM net_worth_projections WHERE scenario_id = ?", scenarioID).Scan(&netWorth); err != nil {
		return 0, 0, err
	}
	return accounts, netWorth, nil
}
