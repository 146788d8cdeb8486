package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Yahoo     YahooConfig     `yaml:"yahoo" mapstructure:"yahoo"`
	EDGAR     EDGARConfig     `yaml:"edgar" mapstructure:"edgar"`
	FMP       FMPConfig       `yaml:"fmp" mapstructure:"fmp"`
	FRED      FREDConfig      `yaml:"fred" mapstructure:"fred"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Fusion    FusionConfig    `yaml:"fusion" mapstructure:"fusion"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Monitor   MonitorConfig   `yaml:"monitor" mapstructure:"monitor"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the run history and response cache backends.
type StoreConfig struct {
	Driver        string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string      `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath    string      `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	CacheTTLHours int         `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	Cache         string      `yaml:"cache" mapstructure:"cache"`
	Redis         RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds the Redis response cache connection.
type RedisConfig struct {
	Address  string `yaml:"address" mapstructure:"address"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// YahooConfig holds market-data endpoint settings.
type YahooConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EDGARConfig holds SEC EDGAR settings. The SEC rejects requests without a
// contact User-Agent.
type EDGARConfig struct {
	UserAgent  string  `yaml:"user_agent" mapstructure:"user_agent"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	WWWBaseURL string  `yaml:"www_base_url" mapstructure:"www_base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// FMPConfig holds Financial Modeling Prep settings.
type FMPConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FREDConfig holds FRED settings.
type FREDConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
}

// FusionConfig bounds the per-phase work.
type FusionConfig struct {
	PhaseTimeoutSecs int `yaml:"phase_timeout_secs" mapstructure:"phase_timeout_secs"`
}

// RetryConfig configures source retries.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the per-source circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// BatchConfig configures multi-ticker runs.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ReportConfig configures the workbook output.
type ReportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// NotionConfig holds Notion API credentials and the scorecard database.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	ScoreDB string `yaml:"score_db" mapstructure:"score_db"`
}

// WatchConfig configures scheduled screening. Tickers is also the default
// list for commands run without arguments.
type WatchConfig struct {
	Schedule string   `yaml:"schedule" mapstructure:"schedule"`
	Tickers  []string `yaml:"tickers" mapstructure:"tickers"`
}

// MonitorConfig configures phase health alerts over recent runs.
type MonitorConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	LookbackRuns         int     `yaml:"lookback_runs" mapstructure:"lookback_runs"`
	MinRuns              int     `yaml:"min_runs" mapstructure:"min_runs"`
}

// defaults are registered before reading the file or environment. Every key
// is listed so QUALITY_* variables bind even without a config file.
var defaults = map[string]any{
	"log.level":                      "info",
	"log.format":                     "json",
	"store.driver":                   "sqlite",
	"store.database_url":             "",
	"store.sqlite_path":              "quality.db",
	"store.cache_ttl_hours":          24,
	"store.cache":                    "",
	"store.redis.address":            "localhost:6379",
	"store.redis.password":           "",
	"store.redis.db":                 0,
	"yahoo.base_url":                 "",
	"edgar.user_agent":               "quality-cli research@example.com",
	"edgar.base_url":                 "",
	"edgar.www_base_url":             "",
	"edgar.rate_per_sec":             10.0,
	"fmp.key":                        "",
	"fmp.base_url":                   "",
	"fred.key":                       "",
	"fred.base_url":                  "",
	"anthropic.key":                  "",
	"anthropic.model":                "claude-sonnet-4-20250514",
	"anthropic.max_tokens":           4000,
	"anthropic.enabled":              true,
	"fusion.phase_timeout_secs":      120,
	"retry.max_attempts":             3,
	"retry.initial_backoff_ms":       500,
	"retry.max_backoff_ms":           10000,
	"circuit.failure_threshold":      5,
	"circuit.reset_timeout_secs":     30,
	"batch.max_concurrent":           4,
	"report.path":                    "quality_scores.xlsx",
	"server.port":                    8080,
	"server.allowed_origins":         []string{},
	"notion.token":                   "",
	"notion.score_db":                "",
	"watch.schedule":                 "0 22 * * 1-5",
	"watch.tickers":                  []string{},
	"monitor.webhook_url":            "",
	"monitor.failure_rate_threshold": 0.25,
	"monitor.lookback_runs":          100,
	"monitor.min_runs":               5,
}

// Load reads .env, the optional config.yaml, and QUALITY_* environment
// variables, in increasing precedence.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUALITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding the process
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return eris.Wrapf(godotenv.Load(path), "config: load %s", path)
}

// Validate checks the settings the given command needs and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	switch c.Store.Cache {
	case "":
	case "redis":
		if c.Store.Redis.Address == "" {
			errs = append(errs, "store.redis.address is required for the redis cache")
		}
	default:
		errs = append(errs, "store.cache must be empty or redis")
	}

	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 32 {
		errs = append(errs, "batch.max_concurrent must be between 1 and 32")
	}

	sources := func() {
		if strings.TrimSpace(c.EDGAR.UserAgent) == "" {
			errs = append(errs, "edgar.user_agent is required")
		}
		if c.Anthropic.Enabled && c.Anthropic.MaxTokens <= 0 {
			errs = append(errs, "anthropic.max_tokens must be > 0")
		}
	}

	switch mode {
	case "run", "score", "report":
		sources()
	case "serve":
		sources()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "watch":
		sources()
		if c.Watch.Schedule == "" {
			errs = append(errs, "watch.schedule is required")
		}
		if c.Monitor.FailureRateThreshold <= 0 || c.Monitor.FailureRateThreshold > 1 {
			errs = append(errs, "monitor.failure_rate_threshold must be in (0, 1]")
		}
	case "publish":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.ScoreDB == "" {
			errs = append(errs, "notion.score_db is required")
		}
	case "store":
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
