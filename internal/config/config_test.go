package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EtfSentry/internal/model"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.Equal(t, "eastmoney", cfg.Fetch.Source)
	assert.Equal(t, 250, cfg.Fetch.LookbackBars)
	assert.NotEmpty(t, cfg.Pool)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pool:
  - symbol: "510300"
    name: 沪深300ETF
    sector: core
weights:
  strength: 0.5
  emotion: 0.2
  capital: 0.1
  hedge: 0.2
fetch:
  source: mock
  lookback_bars: 120
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Pool, 1)
	assert.Equal(t, "core", cfg.Pool[0].Sector)
	assert.Equal(t, 0.5, cfg.Weights.Strength)
	assert.Equal(t, "mock", cfg.Fetch.Source)
	assert.Equal(t, 120, cfg.Fetch.LookbackBars)
	// Defaults still fill the gaps.
	assert.Equal(t, 0.35, cfg.Thresholds.Buy)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATA_SOURCE", "mock")
	t.Setenv("TELEGRAM_BOT_TOKEN", "secret-token")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Fetch.Source)
	assert.Equal(t, "secret-token", cfg.Telegram.BotToken)
	assert.Equal(t, 7, cfg.Fetch.TimeoutSeconds)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights do not sum to one", func(c *Config) { c.Weights.Strength = 0.9 }},
		{"negative weight", func(c *Config) { c.Weights.Strength = -0.1; c.Weights.Emotion = 0.75 }},
		{"empty pool", func(c *Config) { c.Pool = nil }},
		{"duplicate symbol", func(c *Config) { c.Pool = append(c.Pool, c.Pool[0]) }},
		{"buy below neutrality", func(c *Config) { c.Thresholds.Buy = 0.10 }},
		{"neutrality out of range", func(c *Config) { c.Thresholds.Neutrality = 1.5 }},
		{"hedge override out of range", func(c *Config) { c.Thresholds.HedgeOverride = 1.2 }},
		{"max position out of range", func(c *Config) { c.Constraints.MaxPositionPct = 1.5 }},
		{"too many retries", func(c *Config) { c.Fetch.Retries = 9 }},
		{"lookback too short", func(c *Config) { c.Fetch.LookbackBars = 5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrConfigValidation)
		})
	}
}
