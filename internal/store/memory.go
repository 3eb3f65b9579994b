package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
)

// MemoryStore keeps a household and its projections in memory. It backs one-shot
// simulations that should not touch the database, and tests.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[string]domain.User
	accounts      map[string][]domain.Account
	income        map[string][]domain.IncomeSource
	expenses      map[string][]domain.ExpenseDefinition
	contributions map[string][]domain.InvestmentContribution
	taxProfiles   map[string][]domain.TaxProfile
	scenarios     map[string]domain.Scenario

	accountRows  map[string][]domain.AccountProjection
	netWorthRows map[string][]domain.NetWorthProjection
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		accounts:      make(map[string][]domain.Account),
		income:        make(map[string][]domain.IncomeSource),
		expenses:      make(map[string][]domain.ExpenseDefinition),
		contributions: make(map[string][]domain.InvestmentContribution),
		taxProfiles:   make(map[string][]domain.TaxProfile),
		scenarios:     make(map[string]domain.Scenario),
		accountRows:   make(map[string][]domain.AccountProjection),
		netWorthRows:  make(map[string][]domain.NetWorthProjection),
	}
}

// SaveHousehold replaces the user's data with the household, keeping projections of
// scenarios that already exist.
func (m *MemoryStore) SaveHousehold(_ context.Context, h *domain.Household) error {
	for _, sc := range h.Scenarios {
		if err := domain.ValidateEventOrder(sc.Events); err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	uid := h.User.ID
	m.users[uid] = h.User
	m.accounts[uid] = append([]domain.Account(nil), h.Accounts...)
	m.income[uid] = append([]domain.IncomeSource(nil), h.IncomeSources...)
	m.expenses[uid] = append([]domain.ExpenseDefinition(nil), h.Expenses...)
	m.contributions[uid] = append([]domain.InvestmentContribution(nil), h.Contributions...)
	m.taxProfiles[uid] = append([]domain.TaxProfile(nil), h.TaxProfiles...)
	for _, sc := range h.Scenarios {
		sc.UserID = uid
		if prev, ok := m.scenarios[sc.ID]; ok {
			sc.LastRunAt = prev.LastRunAt
		}
		sc.Events = append([]domain.SimulationEvent(nil), sc.Events...)
		m.scenarios[sc.ID] = sc
	}
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return &u, nil
}

func (m *MemoryStore) GetScenario(_ context.Context, userID, scenarioID string) (*domain.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.scenarios[scenarioID]
	if !ok || sc.UserID != userID {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, scenarioID)
	}
	sc.Events = sc.OrderedEvents()
	return &sc, nil
}

// ListScenarios returns a user's scenarios, baseline first then by name.
func (m *MemoryStore) ListScenarios(_ context.Context, userID string) ([]domain.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Scenario
	for _, sc := range m.scenarios {
		if sc.UserID == userID {
			sc.Events = nil
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsBaseline != out[j].IsBaseline {
			return out[i].IsBaseline
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func activeOnly[T any](items []T, disabled func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !disabled(it) {
			out = append(out, it)
		}
	}
	return out
}

func (m *MemoryStore) ListAccounts(_ context.Context, userID string) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.accounts[userID], func(a domain.Account) bool { return a.Disabled }), nil
}

func (m *MemoryStore) ListIncomeSources(_ context.Context, userID string) ([]domain.IncomeSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.income[userID], func(i domain.IncomeSource) bool { return i.Disabled }), nil
}

func (m *MemoryStore) ListExpenses(_ context.Context, userID string) ([]domain.ExpenseDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.expenses[userID], func(e domain.ExpenseDefinition) bool { return e.Disabled }), nil
}

func (m *MemoryStore) ListContributions(_ context.Context, userID string) ([]domain.InvestmentContribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.contributions[userID], func(c domain.InvestmentContribution) bool { return c.Disabled }), nil
}

func (m *MemoryStore) ListTaxProfiles(_ context.Context, userID string) ([]domain.TaxProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeOnly(m.taxProfiles[userID], func(t domain.TaxProfile) bool { return t.Disabled }), nil
}

func (m *MemoryStore) AccountNames(_ context.Context, userID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make(map[string]string, len(m.accounts[userID]))
	for _, a := range m.accounts[userID] {
		names[a.ID] = a.Name
	}
	return names, nil
}

func (m *MemoryStore) SaveProjections(_ context.Context, batch domain.ProjectionBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenarios[batch.ScenarioID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, batch.ScenarioID)
	}
	if batch.Replace {
		delete(m.accountRows, batch.ScenarioID)
		delete(m.netWorthRows, batch.ScenarioID)
	}
	m.accountRows[batch.ScenarioID] = append(m.accountRows[batch.ScenarioID], batch.AccountRows...)
	m.netWorthRows[batch.ScenarioID] = append(m.netWorthRows[batch.ScenarioID], batch.NetWorthRows...)
	runAt := batch.RunAt
	sc.LastRunAt = &runAt
	m.scenarios[batch.ScenarioID] = sc
	return nil
}

func inWindow(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func (m *MemoryStore) ListNetWorthProjections(_ context.Context, scenarioID string, from, to *time.Time) ([]domain.NetWorthProjection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.NetWorthProjection
	for _, r := range m.netWorthRows[scenarioID] {
		if inWindow(r.PeriodDate, from, to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PeriodDate.Before(out[j].PeriodDate) })
	return out, nil
}

func (m *MemoryStore) ListAccountProjections(_ context.Context, scenarioID string, from, to *time.Time, accountID string) ([]domain.AccountProjection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.AccountProjection
	for _, r := range m.accountRows[scenarioID] {
		if accountID != "" && r.AccountID != accountID {
			continue
		}
		if inWindow(r.PeriodDate, from, to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PeriodDate.Before(out[j].PeriodDate) })
	return out, nil
}
