package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/splitcheck/splitcheck/internal/config"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "splitcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, stats.DefaultOptions(), opts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
analysis:
  simulations: 5000
  seed: 7
  significance_threshold: 0.01
  control_label: old_page
  treatment_label: new_page
  workers: 4
  tail: strict
dataset:
  path: experiments.db
  table: ab_test
server:
  port: 9090
  token: secret
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, 5000, opts.Simulations)
	assert.Equal(t, uint64(7), opts.Seed)
	assert.Equal(t, 0.01, opts.Threshold)
	assert.Equal(t, "old_page", opts.ControlLabel)
	assert.Equal(t, "new_page", opts.TreatmentLabel)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, stats.TailStrict, opts.Tail)
	// Keys missing from the file keep their defaults
	assert.Equal(t, stats.DefaultHistogramBins, opts.HistogramBins)

	assert.Equal(t, "experiments.db", cfg.Dataset.Path)
	assert.Equal(t, "ab_test", cfg.Dataset.Table)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.Token)
	assert.Equal(t, 1000000, cfg.Server.MaxSimulations)
	assert.Equal(t, int64(10000000000), cfg.Server.MaxTrials)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "analysis:\n  simulations: 5000\n")

	t.Setenv("SC_SIMULATIONS", "200")
	t.Setenv("SC_SEED", "99")
	t.Setenv("SC_SIGNIFICANCE_THRESHOLD", "0.1")
	t.Setenv("SC_DATASET", "other.csv")
	t.Setenv("SC_MAX_TRIALS", "5000000")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Analysis.Simulations)
	assert.Equal(t, uint64(99), cfg.Analysis.Seed)
	assert.Equal(t, 0.1, cfg.Analysis.SignificanceThreshold)
	assert.Equal(t, "other.csv", cfg.Dataset.Path)
	assert.Equal(t, int64(5000000), cfg.Server.MaxTrials)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("SC_SIMULATIONS", "many")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"zero simulations":   "analysis:\n  simulations: 0\n",
		"threshold too high": "analysis:\n  significance_threshold: 1.5\n",
		"same labels":        "analysis:\n  control_label: a\n  treatment_label: a\n",
		"negative workers":   "analysis:\n  workers: -2\n",
		"unknown tail":       "analysis:\n  tail: two-sided\n",
		"bad port":           "server:\n  port: 70000\n",
		"zero max trials":    "server:\n  max_trials: 0\n",
		"malformed yaml":     "analysis: [\n",
	}

	for name, body := range cases {
		_, err := config.Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
