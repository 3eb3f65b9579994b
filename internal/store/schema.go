package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    date_of_birth        TEXT,
    home_currency        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS accounts (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    account_type         TEXT NOT NULL,
    currency             TEXT NOT NULL,
    current_balance      TEXT NOT NULL,
    is_liability         INTEGER NOT NULL DEFAULT 0,
    interest_rate_annual TEXT,
    interest_compounding TEXT NOT NULL DEFAULT 'none',
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS income_sources (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    base_amount          TEXT NOT NULL,
    payment_frequency    TEXT NOT NULL,
    annual_increase_rate TEXT,
    tax_profile_id       TEXT NOT NULL DEFAULT '',
    is_pre_tax           INTEGER NOT NULL DEFAULT 0,
    target_account_id    TEXT NOT NULL DEFAULT '',
    start_date           TEXT,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS expense_definitions (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount_type          TEXT NOT NULL,
    amount_value         TEXT,
    amount_formula       TEXT NOT NULL DEFAULT '',
    frequency            TEXT NOT NULL,
    inflation_adjusted   INTEGER NOT NULL DEFAULT 0,
    linked_account_id    TEXT NOT NULL DEFAULT '',
    start_date           TEXT,
    end_condition_type   TEXT NOT NULL DEFAULT 'none',
    end_account_id       TEXT NOT NULL DEFAULT '',
    end_date             TEXT,
    end_amount_threshold TEXT,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS investment_contributions (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    frequency            TEXT NOT NULL,
    annual_increase_rate TEXT,
    source_account_id    TEXT NOT NULL DEFAULT '',
    target_account_id    TEXT NOT NULL DEFAULT '',
    start_date           TEXT,
    end_condition_type   TEXT NOT NULL DEFAULT 'none',
    end_account_id       TEXT NOT NULL DEFAULT '',
    end_date             TEXT,
    end_amount_threshold TEXT,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS tax_profiles (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    brackets             TEXT NOT NULL DEFAULT '[]',
    flat_rate            TEXT,
    flat_monthly_cap     TEXT,
    rebates              TEXT NOT NULL DEFAULT '',
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS simulation_scenarios (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT '',
    start_date           TEXT NOT NULL,
    end_date             TEXT,
    end_condition        TEXT NOT NULL DEFAULT '',
    base_assumptions     TEXT NOT NULL DEFAULT '',
    is_baseline          INTEGER NOT NULL DEFAULT 0,
    last_run_at          TEXT
);

CREATE TABLE IF NOT EXISTS simulation_events (
    id                   TEXT PRIMARY KEY,
    scenario_id          TEXT NOT NULL REFERENCES simulation_scenarios(id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT '',
    trigger_type         TEXT NOT NULL,
    trigger_date         TEXT,
    trigger_age          INTEGER,
    trigger_condition    TEXT NOT NULL DEFAULT '',
    event_type           TEXT NOT NULL,
    amount_type          TEXT NOT NULL,
    amount_value         TEXT,
    amount_formula       TEXT NOT NULL DEFAULT '',
    affected_account_id  TEXT NOT NULL DEFAULT '',
    source_account_id    TEXT NOT NULL DEFAULT '',
    applies_once         INTEGER NOT NULL DEFAULT 1,
    recurrence_frequency TEXT NOT NULL DEFAULT '',
    recurrence_end_date  TEXT,
    sort_order           INTEGER NOT NULL,
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS account_projections (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    scenario_id           TEXT NOT NULL REFERENCES simulation_scenarios(id) ON DELETE CASCADE,
    account_id            TEXT NOT NULL,
    period_date           TEXT NOT NULL,
    balance               TEXT NOT NULL,
    balance_home_currency TEXT NOT NULL,
    period_income         TEXT NOT NULL,
    period_expenses       TEXT NOT NULL,
    period_interest       TEXT NOT NULL,
    events_applied        TEXT
);

CREATE TABLE IF NOT EXISTS net_worth_projections (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    scenario_id           TEXT NOT NULL REFERENCES simulation_scenarios(id) ON DELETE CASCADE,
    period_date           TEXT NOT NULL,
    total_assets          TEXT NOT NULL,
    total_liabilities     TEXT NOT NULL,
    net_worth             TEXT NOT NULL,
    breakdown_by_type     TEXT NOT NULL,
    breakdown_by_currency TEXT NOT NULL,
    milestones_reached    TEXT
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id, position);
CREATE INDEX IF NOT EXISTS idx_events_scenario ON simulation_events(scenario_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_account_proj_scenario_date ON account_projections(scenario_id, period_date);
CREATE INDEX IF NOT EXISTS idx_net_worth_proj_scenario_date ON net_worth_projections(scenario_id, period_date);
`
