package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "console", s.Output.Format)
	assert.Equal(t, "monthly", s.Output.Granularity)
	assert.NoError(t, s.Validate())
	require.Len(t, s.Targets(), 5)
	assert.True(t, s.Targets()[0].Equal(decimal.NewFromInt(100000)))
	assert.True(t, s.TaxRate().Equal(decimal.RequireFromString("0.25")))
}

func TestDirsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	assert.Equal(t, filepath.Join("/tmp/cfg", "lifeplan", "config.toml"), Path())
	assert.Equal(t, filepath.Join("/tmp/data", "lifeplan", "lifeplan.db"), DefaultDatabasePath())
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().Simulation, s.Simulation)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	s := DefaultSettings()
	s.General.DefaultUser = "alex"
	s.Simulation.MilestoneTargets = []int64{250000}
	s.Output.Format = "json"
	require.NoError(t, SaveTo(path, s))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "alex", loaded.General.DefaultUser)
	assert.Equal(t, []int64{250000}, loaded.Simulation.MilestoneTargets)
	assert.Equal(t, "json", loaded.Output.Format)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"csv\"\n"), 0o600))

	s, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", s.Output.Format)
	assert.Equal(t, "monthly", s.Output.Granularity)
	assert.Len(t, s.Simulation.MilestoneTargets, 5)
}

func TestLoadFrom_Invalid(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[output\n"), 0o600))
	_, err := LoadFrom(broken)
	assert.ErrorContains(t, err, "parsing settings")

	badRate := filepath.Join(dir, "rate.toml")
	require.NoError(t, os.WriteFile(badRate, []byte("[simulation]\nfallback_tax_rate = 25.0\n"), 0o600))
	_, err = LoadFrom(badRate)
	assert.ErrorContains(t, err, "fallback_tax_rate")
}
