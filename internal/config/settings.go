package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

const appName = "lifeplan"

// Settings holds the CLI's persistent preferences.
type Settings struct {
	General    GeneralSettings    `toml:"general"`
	Simulation SimulationSettings `toml:"simulation"`
	Output     OutputSettings     `toml:"output"`
}

// GeneralSettings holds storage and identity defaults.
type GeneralSettings struct {
	DatabasePath string `toml:"database_path,omitempty"`
	DefaultUser  string `toml:"default_user,omitempty"`
}

// SimulationSettings tunes the projection engine.
type SimulationSettings struct {
	MilestoneTargets []int64 `toml:"milestone_targets"`
	// FallbackTaxRate applies to pre-tax income whose tax profile cannot be found.
	FallbackTaxRate float64 `toml:"fallback_tax_rate"`
}

// OutputSettings holds report defaults.
type OutputSettings struct {
	Format      string `toml:"format"`
	Granularity string `toml:"granularity"`
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		General: GeneralSettings{
			DatabasePath: DefaultDatabasePath(),
		},
		Simulation: SimulationSettings{
			MilestoneTargets: []int64{100000, 500000, 1000000, 5000000, 10000000},
			FallbackTaxRate:  0.25,
		},
		Output: OutputSettings{
			Format:      "console",
			Granularity: "monthly",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// Path returns the full path to the settings file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultDatabasePath returns the XDG-compliant location of the projection database.
func DefaultDatabasePath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "lifeplan.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName, "lifeplan.db")
}

// Load reads the settings file, returning defaults if it doesn't exist.
func Load() (Settings, error) {
	return LoadFrom(Path())
}

// LoadFrom reads settings from path, returning defaults if the file doesn't exist.
func LoadFrom(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings: %w", err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Save writes the settings to the default location.
func Save(s Settings) error {
	return SaveTo(Path(), s)
}

// SaveTo writes the settings to path.
func SaveTo(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating settings file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(s)
}

// Exists returns true if a settings file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Simulation.FallbackTaxRate < 0 || s.Simulation.FallbackTaxRate > 1 {
		return fmt.Errorf("fallback_tax_rate must be between 0 and 1, got %v", s.Simulation.FallbackTaxRate)
	}
	for _, t := range s.Simulation.MilestoneTargets {
		if t <= 0 {
			return fmt.Errorf("milestone targets must be positive, got %d", t)
		}
	}
	return nil
}

// Targets returns the milestone targets as decimals.
func (s Settings) Targets() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(s.Simulation.MilestoneTargets))
	for _, t := range s.Simulation.MilestoneTargets {
		out = append(out, decimal.NewFromInt(t))
	}
	return out
}

// TaxRate returns the fallback tax rate as a decimal.
func (s Settings) TaxRate() decimal.Decimal {
	return decimal.NewFromFloat(s.Simulation.FallbackTaxRate)
}
