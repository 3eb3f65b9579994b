// Package cmd implements the lifeplan CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/lifeplan/projection-engine/internal/calculation"
	"github.com/lifeplan/projection-engine/internal/config"
	"github.com/lifeplan/projection-engine/internal/domain"
	"github.com/lifeplan/projection-engine/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagDB         string
	flagUser       string
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "lifeplan",
	Short: "Personal net worth projection engine",
	Long: "Import a household (accounts, income, expenses, contributions, tax profiles and\n" +
		"scenarios), simulate it month by month and inspect the projected net worth.",
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
// An interrupt cancels the running simulation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default from settings)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User ID (default from settings, or the only stored user)")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Settings file (default $XDG_CONFIG_HOME/lifeplan/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log engine progress to stderr")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadSettings reads the settings file named by --config or the default location.
func loadSettings() (config.Settings, error) {
	if flagConfigPath != "" {
		return config.LoadFrom(flagConfigPath)
	}
	return config.Load()
}

// openStore opens the SQLite database named by --db or the settings.
func openStore(s config.Settings) (*store.SQLiteStore, error) {
	path := flagDB
	if path == "" {
		path = s.General.DatabasePath
	}
	if path == "" {
		path = config.DefaultDatabasePath()
	}
	return store.Open(path)
}

// newEngine builds an engine configured from settings and flags.
func newEngine(repo calculation.Repository, s config.Settings) *calculation.SimulationEngine {
	eng := calculation.NewSimulationEngine(repo)
	eng.TaxCalc.FallbackRate = s.TaxRate()
	eng.MilestoneTargets = s.Targets()
	if !flagQuiet {
		eng.SetLogger(calculation.NewStdLogger(os.Stderr, "lifeplan ", flagVerbose))
	}
	return eng
}

// session is the shared state most commands need.
type session struct {
	settings config.Settings
	store    *store.SQLiteStore
	engine   *calculation.SimulationEngine
	userID   string
}

func openSession(ctx context.Context, needUser bool) (*session, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	db, err := openStore(s)
	if err != nil {
		return nil, err
	}
	sess := &session{settings: s, store: db, engine: newEngine(db, s)}
	if needUser {
		if sess.userID, err = resolveUser(ctx, db, s); err != nil {
			db.Close()
			return nil, err
		}
	}
	return sess, nil
}

func (s *session) Close() error { return s.store.Close() }

func resolveUser(ctx context.Context, db *store.SQLiteStore, s config.Settings) (string, error) {
	if flagUser != "" {
		return flagUser, nil
	}
	if s.General.DefaultUser != "" {
		return s.General.DefaultUser, nil
	}
	users, err := db.ListUsers(ctx)
	if err != nil {
		return "", err
	}
	switch len(users) {
	case 0:
		return "", errors.New("no users stored; run `lifeplan import FILE` first")
	case 1:
		return users[0].ID, nil
	default:
		ids := make([]string, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		return "", fmt.Errorf("several users stored (%s); pass --user", strings.Join(ids, ", "))
	}
}

// scenarioLister is satisfied by both stores.
type scenarioLister interface {
	ListScenarios(ctx context.Context, userID string) ([]domain.Scenario, error)
}

// resolveScenario maps a scenario ID or case-insensitive name to a scenario. An empty
// reference selects the baseline.
func resolveScenario(ctx context.Context, repo scenarioLister, userID, ref string) (*domain.Scenario, error) {
	scenarios, err := repo.ListScenarios(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: user %s has no scenarios", domain.ErrScenarioNotFound, userID)
	}
	if ref == "" {
		// ListScenarios orders the baseline first.
		return &scenarios[0], nil
	}
	for i := range scenarios {
		if scenarios[i].ID == ref {
			return &scenarios[i], nil
		}
	}
	for i := range scenarios {
		if strings.EqualFold(scenarios[i].Name, ref) {
			return &scenarios[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, ref)
}

func scenarioArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func progressf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
