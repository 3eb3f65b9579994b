package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountProjection is one account's state at the end of one simulated month
type AccountProjection struct {
	ScenarioID          string          `json:"scenario_id"`
	AccountID           string          `json:"account_id"`
	PeriodDate          time.Time       `json:"period_date"`
	Balance             decimal.Decimal `json:"balance"` // liabilities are negated for display
	BalanceHomeCurrency decimal.Decimal `json:"balance_home_currency"`
	PeriodIncome        decimal.Decimal `json:"period_income"`
	PeriodExpenses      decimal.Decimal `json:"period_expenses"`
	PeriodInterest      decimal.Decimal `json:"period_interest"`
	EventsApplied       []string        `json:"events_applied,omitempty"`
}

// NetWorthProjection is the aggregate state at the end of one simulated month
type NetWorthProjection struct {
	ScenarioID          string                     `json:"scenario_id"`
	PeriodDate          time.Time                  `json:"period_date"`
	TotalAssets         decimal.Decimal            `json:"total_assets"`
	TotalLiabilities    decimal.Decimal            `json:"total_liabilities"`
	NetWorth            decimal.Decimal            `json:"net_worth"`
	BreakdownByType     map[string]decimal.Decimal `json:"breakdown_by_type"`
	BreakdownByCurrency map[string]decimal.Decimal `json:"breakdown_by_currency"`
	MilestonesReached   []string                   `json:"milestones_reached,omitempty"`
}

// MilestoneResult records the first period a net-worth target was met
type MilestoneResult struct {
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Value       decimal.Decimal `json:"value"`
	YearsAway   decimal.Decimal `json:"years_away"`
}

// Warning is a non-fatal data-quality signal raised while simulating
type Warning struct {
	Code    string    `json:"code"`
	Period  time.Time `json:"period,omitempty"`
	Message string    `json:"message"`
}

// Warning codes
const (
	WarnTaxFallback        = "tax_fallback"
	WarnRebateFallback     = "rebate_fallback"
	WarnAssumptionFallback = "assumption_fallback"
	WarnFormulaUnsupported = "formula_unsupported"
	WarnNoTargetAccount    = "no_target_account"
	WarnUnknownAccount     = "unknown_account"
	WarnTransferNoSource   = "transfer_without_source"
	WarnUnknownEventType   = "unknown_event_type"
	WarnMissingTaxProfile  = "missing_tax_profile"
)

// Run statuses
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// RunResult summarises one simulation run
type RunResult struct {
	ScenarioID        string            `json:"scenario_id"`
	Status            string            `json:"status"`
	PeriodsCalculated int               `json:"periods_calculated"`
	ExecutionTimeMs   int64             `json:"execution_time_ms"`
	StartDate         time.Time         `json:"start_date"`
	EndDate           time.Time         `json:"end_date"`
	KeyMilestones     []MilestoneResult `json:"key_milestones"`
	Warnings          []Warning         `json:"warnings,omitempty"`
}

// AccountProjectionItem is per-account detail inside an aggregated period
type AccountProjectionItem struct {
	AccountID           string          `json:"account_id"`
	AccountName         string          `json:"account_name"`
	Balance             decimal.Decimal `json:"balance"`
	BalanceHomeCurrency decimal.Decimal `json:"balance_home_currency"`
	PeriodIncome        decimal.Decimal `json:"period_income"`
	PeriodExpenses      decimal.Decimal `json:"period_expenses"`
	PeriodInterest      decimal.Decimal `json:"period_interest"`
}

// PeriodProjection is one monthly/quarterly/yearly bucket of the read view
type PeriodProjection struct {
	Period              string                     `json:"period"`
	PeriodDate          time.Time                  `json:"period_date"`
	NetWorth            decimal.Decimal            `json:"net_worth"`
	TotalAssets         decimal.Decimal            `json:"total_assets"`
	TotalLiabilities    decimal.Decimal            `json:"total_liabilities"`
	BreakdownByType     map[string]decimal.Decimal `json:"breakdown_by_type,omitempty"`
	BreakdownByCurrency map[string]decimal.Decimal `json:"breakdown_by_currency,omitempty"`
	Accounts            []AccountProjectionItem    `json:"accounts,omitempty"`
}

// ProjectionSummary holds trajectory statistics over the read rows
type ProjectionSummary struct {
	StartNetWorth        decimal.Decimal `json:"start_net_worth"`
	EndNetWorth          decimal.Decimal `json:"end_net_worth"`
	TotalGrowth          decimal.Decimal `json:"total_growth"`
	AnnualizedReturn     decimal.Decimal `json:"annualized_return"`
	AvgMonthlyGrowthRate decimal.Decimal `json:"avg_monthly_growth_rate"`
	TotalMonths          int             `json:"total_months"`
}

// ProjectionData is the client-facing projection view
type ProjectionData struct {
	ScenarioID  string             `json:"scenario_id"`
	Granularity Granularity        `json:"granularity"`
	Periods     []PeriodProjection `json:"monthly_projections"`
	Milestones  []MilestoneResult  `json:"milestones"`
	Summary     ProjectionSummary  `json:"summary"`
}

// ProjectionQuery filters a projection read
type ProjectionQuery struct {
	From        *time.Time
	To          *time.Time
	Granularity Granularity
	AccountID   string
}

// ProjectionBatch is the set of rows a run persists. When Replace is set, all prior
// rows for the scenario are removed in the same transaction.
type ProjectionBatch struct {
	ScenarioID   string
	Replace      bool
	AccountRows  []AccountProjection
	NetWorthRows []NetWorthProjection
	RunAt        time.Time
}
