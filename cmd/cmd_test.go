package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/demandcascade/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProfilesCommand(t *testing.T) {
	out, err := execute(t, "profiles", "../scenario/testdata/baseline.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "heating_winter")
	assert.Contains(t, out, "summer_cooling")
	assert.Contains(t, out, "ok")
}

func TestPlansCommand(t *testing.T) {
	plansYear = 0
	out, err := execute(t, "plans", "../scenario/testdata/baseline.yaml", "--year", "2050")
	require.NoError(t, err)
	assert.Contains(t, out, "heat_pumps_electricity")
	assert.Contains(t, out, "0.5000")
}

func TestProfilesMissingScenario(t *testing.T) {
	_, err := execute(t, "profiles", "does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "simulation:\n  scenario: base.yaml\n  years: [2015, 2050]\n  workers: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cmd := flagCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--years", "2020,2030", "--format", "json", "--hourly"}))
	cfgPath = path

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "base.yaml", cfg.Simulation.Scenario)
	assert.Equal(t, []int{2020, 2030}, cfg.Simulation.Years)
	assert.Equal(t, 2, cfg.Simulation.Workers)
	assert.Equal(t, "json", cfg.Simulation.OutputFormat)
	assert.True(t, cfg.Simulation.Hourly)
}

func TestLoadConfigRejectsBadFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  scenario: base.yaml\n"), 0o600))

	cmd := flagCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--format", "xml"}))
	cfgPath = path

	_, err := loadConfig(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output format")
}

// flagCommand shares the root simulation flags and resets them afterwards.
func flagCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(rootCmd.Flags())
	t.Cleanup(func() {
		simOpts = config.SimulationConfig{}
		cfgPath = "config.yaml"
		cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	})
	return cmd
}
