package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv(EnvToken, "")
	t.Setenv(EnvAccountID, "")

	cfg, err := Parse([]byte("mode: dry_run\n"))
	require.NoError(t, err)

	assert.Equal(t, ModeDryRun, cfg.Mode)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultIndexURL, cfg.Index.URL)
	assert.Equal(t, DefaultTickersURL, cfg.Index.TickersURL)
	assert.Equal(t, 1, *cfg.Index.SkipRows)
	assert.Equal(t, 1, *cfg.Index.SkipStartColumns)
	assert.Equal(t, 2, *cfg.Index.SkipEndColumns)
	assert.Equal(t, "MARKET", cfg.Strategy.OrderType)
	assert.Equal(t, "RUB", cfg.Strategy.Currency)
	assert.Equal(t, "Europe/Moscow", cfg.Schedule.Timezone)
	assert.Equal(t, 10, cfg.Index.TimeoutSeconds)
}

func TestParseKeepsExplicitZeroSkips(t *testing.T) {
	cfg, err := Parse([]byte(`
mode: DRY_RUN
index:
  skip_rows: 0
  skip_end_columns: 0
`))
	require.NoError(t, err)
	assert.Equal(t, 0, *cfg.Index.SkipRows)
	assert.Equal(t, 0, *cfg.Index.SkipEndColumns)
	assert.Equal(t, 1, *cfg.Index.SkipStartColumns)
}

func TestMaxRetries(t *testing.T) {
	cfg, err := Parse([]byte("mode: DRY_RUN\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retries())

	cfg, err = Parse([]byte("api:\n  max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Retries())
}

func TestValidateWithoutDefaults(t *testing.T) {
	cfg := &Config{Mode: ModeDryRun}
	cfg.API.RatePerSecond = 1
	cfg.Index.URL = DefaultIndexURL
	cfg.Index.TickersURL = DefaultTickersURL
	cfg.Strategy.OrderType = "MARKET"
	cfg.Schedule.Cron = "30 10 * * 1-5"
	cfg.Schedule.Timezone = "UTC"
	cfg.Schedule.EODTime = "18:50"

	assert.NotPanics(t, func() { assert.NoError(t, cfg.Validate()) })
	assert.Equal(t, 3, cfg.Retries())

	cfg.Index.SkipEndColumns = intPtr(-1)
	assert.Error(t, cfg.Validate())
}

func TestSandboxBaseURL(t *testing.T) {
	cfg, err := Parse([]byte("api:\n  sandbox: true\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSandboxBaseURL, cfg.API.BaseURL)
}

func TestSecretsFromEnv(t *testing.T) {
	t.Setenv(EnvToken, "t.secret")
	t.Setenv(EnvAccountID, "2000123")

	cfg, err := Parse([]byte("mode: LIVE\napi:\n  account_id: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "t.secret", cfg.API.Token)
	assert.Equal(t, "2000123", cfg.API.AccountID)
}

func TestValidateErrors(t *testing.T) {
	t.Setenv(EnvToken, "")
	t.Setenv(EnvAccountID, "")

	cases := map[string]string{
		"bad mode":       "mode: PAPER\n",
		"live no token":  "mode: LIVE\n",
		"bad order type": "strategy:\n  order_type: STOP\n",
		"bad cron":       "schedule:\n  cron: \"every day\"\n",
		"bad timezone":   "schedule:\n  timezone: Mars/Olympus\n",
		"bad eod time":   "schedule:\n  eod_time: \"7pm\"\n",
		"negative skip":  "index:\n  skip_rows: -1\n",
		"negative cash":  "strategy:\n  cash_reserve: -5\n",
		"negative retry": "api:\n  max_retries: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: DRY_RUN\nstrategy:\n  max_orders: 3\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Strategy.MaxOrders)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
