package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// inTempDir switches to an empty directory so no config.yaml or .env is
// picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "quality.db", cfg.Store.SQLitePath)
	assert.Equal(t, 24, cfg.Store.CacheTTLHours)
	assert.Empty(t, cfg.Store.Cache)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Address)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
	assert.InDelta(t, 10.0, cfg.EDGAR.RatePerSec, 0.001)
	assert.NotEmpty(t, cfg.EDGAR.UserAgent)
	assert.Equal(t, int64(4000), cfg.Anthropic.MaxTokens)
	assert.True(t, cfg.Anthropic.Enabled)
	assert.Equal(t, 120, cfg.Fusion.PhaseTimeoutSecs)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.Equal(t, "quality_scores.xlsx", cfg.Report.Path)
	assert.InDelta(t, 0.25, cfg.Monitor.FailureRateThreshold, 0.001)
	assert.Equal(t, 100, cfg.Monitor.LookbackRuns)
	assert.Equal(t, 5, cfg.Monitor.MinRuns)
	assert.Equal(t, "0 22 * * 1-5", cfg.Watch.Schedule)
	assert.Empty(t, cfg.FMP.Key)
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/quality
  cache: redis
  redis:
    address: redis:6379
    db: 2
log:
  level: debug
  format: console
fmp:
  key: fmp-key
watch:
  tickers: [KO, PEP]
batch:
  max_concurrent: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "redis", cfg.Store.Cache)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Address)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "fmp-key", cfg.FMP.Key)
	assert.Equal(t, []string{"KO", "PEP"}, cfg.Watch.Tickers)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	// Defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
log:
  level: debug
fred:
  key: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("QUALITY_LOG_LEVEL", "warn")
	t.Setenv("QUALITY_FRED_KEY", "from-env")
	t.Setenv("QUALITY_WATCH_TICKERS", "AAPL,MSFT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.FRED.Key)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watch.Tickers)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUALITY_FMP_KEY=dotenv-key\nQUALITY_SERVER_PORT=3000\n"), 0o644))
	t.Setenv("QUALITY_SERVER_PORT", "4000")
	t.Cleanup(func() { os.Unsetenv("QUALITY_FMP_KEY") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dotenv-key", cfg.FMP.Key)
	assert.Equal(t, 4000, cfg.Server.Port, "process env wins over .env")
}

func TestLoadBadYAML(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes validation for every mode
// except publish.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.EDGAR.UserAgent = "quality-cli research@example.com"
	cfg.Anthropic.Enabled = true
	cfg.Anthropic.MaxTokens = 4000
	cfg.Batch.MaxConcurrent = 4
	cfg.Server.Port = 8080
	cfg.Watch.Schedule = "@daily"
	cfg.Monitor.FailureRateThreshold = 0.25
	return cfg
}

func TestValidate_SourceModes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"run", "score", "report", "serve", "watch", "store"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_MissingUserAgent(t *testing.T) {
	cfg := validDefaults()
	cfg.EDGAR.UserAgent = "  "

	err := cfg.Validate("score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edgar.user_agent is required")
}

func TestValidate_Postgres(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/quality"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidate_Cache(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Cache = "memcached"
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.cache must be empty or redis")

	cfg.Store.Cache = "redis"
	err = cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.redis.address is required")

	cfg.Store.Redis.Address = "localhost:6379"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidate_Publish_CollectsAll(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("publish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "notion.token is required")
	assert.Contains(t, err.Error(), "notion.score_db is required")
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_WatchSchedule(t *testing.T) {
	cfg := validDefaults()
	cfg.Watch.Schedule = ""

	err := cfg.Validate("watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch.schedule is required")
}

func TestValidate_MonitorThreshold(t *testing.T) {
	cfg := validDefaults()
	cfg.Monitor.FailureRateThreshold = 1.5

	err := cfg.Validate("watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor.failure_rate_threshold")
}

func TestValidate_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrent = 0
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.max_concurrent must be between 1 and 32")

	cfg.Batch.MaxConcurrent = 33
	assert.Error(t, cfg.Validate("run"))

	cfg.Batch.MaxConcurrent = 32
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidate_UnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
