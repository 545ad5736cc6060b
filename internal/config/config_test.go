package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ARXIV_SUBJECTS", "ARXIV_MAX_RESULTS", "SOURCE", "SCHEDULE_CRON",
		"REQUEST_TIMEOUT", "REQUEST_INTERVAL", "DISCORD_WEBHOOK_URL",
		"REPORT_WIDTH", "LOG_LEVEL", "WATCHLIST_FILE",
		"SIM_NT", "SIM_T_END", "SIM_NX", "SIM_EPS", "SIM_OUT_V", "SIM_OUT_P", "SIM_CLIP",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"math.NA"}, cfg.Subjects)
	assert.Equal(t, 1000, cfg.MaxResults)
	assert.Equal(t, DefaultKeywords, cfg.Keywords)
	assert.Equal(t, DefaultAuthors, cfg.Authors)
	assert.Equal(t, SourceListing, cfg.Source)
	assert.Empty(t, cfg.ScheduleCron)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.RequestInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARXIV_SUBJECTS", "math.AP, physics.plasm-ph ,")
	t.Setenv("ARXIV_MAX_RESULTS", "250")
	t.Setenv("SOURCE", "rss")
	t.Setenv("REQUEST_TIMEOUT", "-1s")
	t.Setenv("REPORT_WIDTH", "80")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"math.AP", "physics.plasm-ph"}, cfg.Subjects)
	assert.Equal(t, 250, cfg.MaxResults)
	assert.Equal(t, SourceRSS, cfg.Source)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 80, cfg.ReportWidth)
}

func TestLoadWatchlistFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	content := `
subjects: [math.OC]
keywords:
  - multigrid
authors: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("WATCHLIST_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"math.OC"}, cfg.Subjects)
	assert.Equal(t, []string{"multigrid"}, cfg.Keywords)
	assert.Empty(t, cfg.Authors)
}

func TestLoadWatchlistMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("WATCHLIST_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read watchlist file")
}

func TestApplyWatchlistKeepsOmittedLists(t *testing.T) {
	cfg := &Config{Subjects: []string{"math.NA"}, Keywords: []string{"a"}, Authors: []string{"b"}}
	cfg.ApplyWatchlist(&Watchlist{Keywords: []string{"c"}})

	assert.Equal(t, []string{"math.NA"}, cfg.Subjects)
	assert.Equal(t, []string{"c"}, cfg.Keywords)
	assert.Equal(t, []string{"b"}, cfg.Authors)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Subjects: []string{"math.NA"}, MaxResults: 25, Source: SourceListing}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"no subjects", func(c *Config) { c.Subjects = nil }, ErrNoSubjects},
		{"bad max results", func(c *Config) { c.MaxResults = 30 }, ErrInvalidMaxResults},
		{"bad source", func(c *Config) { c.Source = "api" }, ErrInvalidSource},
		{"negative width", func(c *Config) { c.ReportWidth = -1 }, ErrInvalidReportWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadSimulationDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadSimulation()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Steps)
	assert.Equal(t, 2.0, cfg.EndTime)
	assert.Equal(t, 20, cfg.Resolution)
	assert.Equal(t, 0.4, cfg.Eps)
	assert.Equal(t, "testu.gif", cfg.OutputV)
	assert.Equal(t, "testp.gif", cfg.OutputP)
	assert.InDelta(t, 0.02, cfg.TimeStep(), 1e-15)
	assert.InDelta(t, 5.0, cfg.FramesPerSecond(), 1e-12)
}

func TestLoadSimulationRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIM_NX", "0")

	_, err := LoadSimulation()
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestSimulationZeroSteps(t *testing.T) {
	cfg := &Simulation{Steps: 0, EndTime: 2, Resolution: 4, Eps: 0.4}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2.0, cfg.TimeStep())
}
