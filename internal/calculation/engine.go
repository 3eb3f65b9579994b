package calculation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Repository is the storage the engine reads inputs from and writes projections to.
// GetScenario returns domain.ErrScenarioNotFound when the scenario is absent or owned
// by another user; GetUser returns domain.ErrUserNotFound.
type Repository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetScenario(ctx context.Context, userID, scenarioID string) (*domain.Scenario, error)
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	ListIncomeSources(ctx context.Context, userID string) ([]domain.IncomeSource, error)
	ListExpenses(ctx context.Context, userID string) ([]domain.ExpenseDefinition, error)
	ListContributions(ctx context.Context, userID string) ([]domain.InvestmentContribution, error)
	ListTaxProfiles(ctx context.Context, userID string) ([]domain.TaxProfile, error)

	SaveProjections(ctx context.Context, batch domain.ProjectionBatch) error
	ListNetWorthProjections(ctx context.Context, scenarioID string, from, to *time.Time) ([]domain.NetWorthProjection, error)
	ListAccountProjections(ctx context.Context, scenarioID string, from, to *time.Time, accountID string) ([]domain.AccountProjection, error)
	AccountNames(ctx context.Context, userID string) (map[string]string, error)
}

// SimulationEngine runs scenarios and serves their projections
type SimulationEngine struct {
	Repo             Repository
	TaxCalc          *TaxCalculator
	Formulas         FormulaEvaluator
	MilestoneTargets []decimal.Decimal // nil means DefaultMilestoneTargets
	Logger           Logger

	mu      sync.Mutex
	running map[string]bool
}

// NewSimulationEngine creates an engine over a repository
func NewSimulationEngine(repo Repository) *SimulationEngine {
	return &SimulationEngine{
		Repo:     repo,
		TaxCalc:  NewTaxCalculator(),
		Formulas: ZeroFormulaEvaluator{},
		Logger:   NopLogger{},
		running:  make(map[string]bool),
	}
}

// SetLogger sets the logger for the engine. If nil is provided, a no-op logger is used.
func (ce *SimulationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

func (ce *SimulationEngine) milestoneTargets() []decimal.Decimal {
	if len(ce.MilestoneTargets) == 0 {
		return DefaultMilestoneTargets()
	}
	return ce.MilestoneTargets
}

// acquire marks a scenario as running; it fails if a run is already in flight.
func (ce *SimulationEngine) acquire(scenarioID string) bool {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	if ce.running == nil {
		ce.running = make(map[string]bool)
	}
	if ce.running[scenarioID] {
		return false
	}
	ce.running[scenarioID] = true
	return true
}

func (ce *SimulationEngine) release(scenarioID string) {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	delete(ce.running, scenarioID)
}

// LoadInput reads everything a run needs for a user's scenario.
func (ce *SimulationEngine) LoadInput(ctx context.Context, userID, scenarioID string) (*SimulationInput, error) {
	scenario, err := ce.Repo.GetScenario(ctx, userID, scenarioID)
	if err != nil {
		return nil, err
	}
	user, err := ce.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	in := &SimulationInput{User: *user, Scenario: *scenario}
	if in.Accounts, err = ce.Repo.ListAccounts(ctx, userID); err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	if in.IncomeSources, err = ce.Repo.ListIncomeSources(ctx, userID); err != nil {
		return nil, fmt.Errorf("loading income sources: %w", err)
	}
	if in.Expenses, err = ce.Repo.ListExpenses(ctx, userID); err != nil {
		return nil, fmt.Errorf("loading expenses: %w", err)
	}
	if in.Contributions, err = ce.Repo.ListContributions(ctx, userID); err != nil {
		return nil, fmt.Errorf("loading contributions: %w", err)
	}
	if in.TaxProfiles, err = ce.Repo.ListTaxProfiles(ctx, userID); err != nil {
		return nil, fmt.Errorf("loading tax profiles: %w", err)
	}
	return in, nil
}

// RunSimulation simulates a scenario and persists its projection rows. With
// recalculateFromStart the previous rows are replaced; otherwise the new rows are
// appended. A concurrent run of the same scenario returns status "skipped".
func (ce *SimulationEngine) RunSimulation(ctx context.Context, userID, scenarioID string, recalculateFromStart bool) (*domain.RunResult, error) {
	started := nowFunc()
	in, err := ce.LoadInput(ctx, userID, scenarioID)
	if err != nil {
		return nil, err
	}

	// LoadInput has already rejected callers that do not own the scenario.
	if !ce.acquire(scenarioID) {
		ce.Logger.Warnf("scenario %s: run already in progress, skipping", scenarioID)
		return &domain.RunResult{ScenarioID: scenarioID, Status: domain.StatusSkipped}, nil
	}
	defer ce.release(scenarioID)

	out, err := ce.GenerateMonthlyProjection(ctx, in)
	if err != nil {
		return nil, err
	}

	batch := domain.ProjectionBatch{
		ScenarioID:   scenarioID,
		Replace:      recalculateFromStart,
		AccountRows:  out.AccountRows,
		NetWorthRows: out.NetWorthRows,
		RunAt:        runStamp(),
	}
	if err := ce.Repo.SaveProjections(ctx, batch); err != nil {
		return nil, fmt.Errorf("saving projections for scenario %s: %w", scenarioID, err)
	}

	milestones := out.Milestones
	if milestones == nil {
		milestones = []domain.MilestoneResult{}
	}
	return &domain.RunResult{
		ScenarioID:        scenarioID,
		Status:            domain.StatusCompleted,
		PeriodsCalculated: out.Periods,
		ExecutionTimeMs:   nowFunc().Sub(started).Milliseconds(),
		StartDate:         out.StartDate,
		EndDate:           out.EndDate,
		KeyMilestones:     milestones,
		Warnings:          out.Warnings,
	}, nil
}

// GetProjections reads persisted rows and aggregates them at the query's granularity.
func (ce *SimulationEngine) GetProjections(ctx context.Context, userID, scenarioID string, q domain.ProjectionQuery) (*domain.ProjectionData, error) {
	g, err := domain.ParseGranularity(string(q.Granularity))
	if err != nil {
		return nil, err
	}

	scenario, err := ce.Repo.GetScenario(ctx, userID, scenarioID)
	if err != nil {
		return nil, err
	}

	netRows, err := ce.Repo.ListNetWorthProjections(ctx, scenarioID, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("loading net worth projections: %w", err)
	}
	accountRows, err := ce.Repo.ListAccountProjections(ctx, scenarioID, q.From, q.To, q.AccountID)
	if err != nil {
		return nil, fmt.Errorf("loading account projections: %w", err)
	}
	names, err := ce.Repo.AccountNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading account names: %w", err)
	}

	return &domain.ProjectionData{
		ScenarioID:  scenarioID,
		Granularity: g,
		Periods:     AggregatePeriods(netRows, accountRows, g, names),
		Milestones:  ExtractMilestones(netRows, scenario.StartDate, ce.milestoneTargets()),
		Summary:     Summarize(netRows),
	}, nil
}

// CalculateMilestones finds, for each target in ascending order, the first persisted
// period whose net worth meets it. It never re-runs the simulation.
func (ce *SimulationEngine) CalculateMilestones(ctx context.Context, userID, scenarioID string, targets []decimal.Decimal) ([]domain.MilestoneResult, error) {
	scenario, err := ce.Repo.GetScenario(ctx, userID, scenarioID)
	if err != nil {
		return nil, err
	}
	rows, err := ce.Repo.ListNetWorthProjections(ctx, scenarioID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("loading net worth projections: %w", err)
	}
	if len(rows) == 0 {
		return []domain.MilestoneResult{}, nil
	}
	return ExtractMilestones(rows, scenario.StartDate, targets), nil
}
