package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	flagDB, flagUser, flagConfigPath = "", "", ""
	flagVerbose, flagQuiet = false, false
	flagImportRun, flagRunAppend, flagCompareRun = false, false, false
	runReport, projectionsReport, simulateReport = reportFlags{}, reportFlags{}, reportFlags{}
	flagTargets = nil
}

// execute runs the root command against an isolated database and settings file.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", filepath.Join(dir, "lifeplan.db"), "--quiet"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestImportRunAndReadBack(t *testing.T) {
	dir := t.TempDir()
	household := filepath.Join("..", "internal", "config", "testdata", "household.yaml")

	out, err := execute(t, dir, "import", household, "--run")
	require.NoError(t, err)
	assert.Contains(t, out, "Jordan")
	assert.Contains(t, out, "completed, 120 periods")

	out, err = execute(t, dir, "scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline")
	assert.Contains(t, out, "Early retirement")

	out, err = execute(t, dir, "projections", "baseline", "-g", "yearly", "-f", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11, "header plus ten years")
	assert.True(t, strings.HasPrefix(lines[1], "Baseline,2026,2026-12-01,"), lines[1])

	out, err = execute(t, dir, "projections", "Baseline", "--from", "2027-01", "--to", "2027-06", "-f", "csv")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 7)

	out, err = execute(t, dir, "compare")
	require.NoError(t, err)
	assert.Contains(t, out, "Highest ending net worth")
}

func TestExampleRunAndMilestones(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "example.yaml")

	_, err := execute(t, dir, "example", file)
	require.NoError(t, err)
	_, err = execute(t, dir, "import", file)
	require.NoError(t, err)

	out, err := execute(t, dir, "milestones", "--target", "50000")
	require.NoError(t, err)
	assert.Contains(t, out, "No targets reached", "nothing has run yet")

	out, err = execute(t, dir, "run", "-f", "json", "-g", "yearly")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "completed"`)

	out, err = execute(t, dir, "milestones", "--target", "50000")
	require.NoError(t, err)
	assert.Contains(t, out, "Net worth reaches $50,000")
}

func TestSimulateDoesNotStore(t *testing.T) {
	dir := t.TempDir()
	household := filepath.Join("..", "internal", "config", "testdata", "household.yaml")

	out, err := execute(t, dir, "simulate", household, "Early retirement", "-f", "console-lite")
	require.NoError(t, err)
	assert.Contains(t, out, "PROJECTION SUMMARY: Early retirement")

	_, err = execute(t, dir, "scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no users stored")
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	household := filepath.Join("..", "internal", "config", "testdata", "household.yaml")
	_, err := execute(t, dir, "import", household)
	require.NoError(t, err)

	_, err = execute(t, dir, "run", "no-such-scenario")
	assert.ErrorContains(t, err, "scenario not found")

	_, err = execute(t, dir, "projections", "-g", "weekly")
	assert.ErrorContains(t, err, "invalid granularity")

	_, err = execute(t, dir, "projections", "-f", "pdf")
	assert.ErrorContains(t, err, "unsupported output format")

	_, err = execute(t, dir, "projections", "--from", "June")
	assert.ErrorContains(t, err, "invalid --from")

	_, err = execute(t, dir, "milestones", "--target", "-5")
	assert.ErrorContains(t, err, "must be positive")

	_, err = execute(t, dir, "run", "--user", "stranger")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "settings.toml")

	out, err := execute(t, dir, "--config", cfg, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+cfg)

	out, err = execute(t, dir, "--config", cfg, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: loaded")
	assert.Contains(t, out, "Fallback tax rate: 0.25")
}
