package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // market timezone must resolve on hosts without zoneinfo

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	ModeDryRun = "DRY_RUN"
	ModeLive   = "LIVE"

	DefaultBaseURL        = "https://invest-public-api.tinkoff.ru/rest"
	DefaultSandboxBaseURL = "https://sandbox-invest-public-api.tinkoff.ru/rest"
	DefaultIndexURL       = "https://smart-lab.ru/q/index_stocks/IMOEX/"
	DefaultTickersURL     = "https://smart-lab.ru/q/shares/"

	EnvToken     = "INVEST_API_TOKEN"
	EnvAccountID = "INVEST_API_ACCOUNT_ID"
)

type Config struct {
	Mode string `yaml:"mode"`
	API  struct {
		BaseURL        string  `yaml:"base_url"`
		Sandbox        bool    `yaml:"sandbox"`
		AccountID      string  `yaml:"account_id"`
		AppName        string  `yaml:"app_name"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
		Burst          int     `yaml:"burst"`
		MaxRetries     *int    `yaml:"max_retries"`

		// Token is read from the environment only.
		Token string `yaml:"-"`
	} `yaml:"api"`
	Index struct {
		URL               string `yaml:"url"`
		TickersURL        string `yaml:"tickers_url"`
		TableIndex        int    `yaml:"table_index"`
		TickersTableIndex int    `yaml:"tickers_table_index"`
		SkipRows          *int   `yaml:"skip_rows"`
		SkipStartColumns  *int   `yaml:"skip_start_columns"`
		SkipEndColumns    *int   `yaml:"skip_end_columns"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		CacheTTLMinutes   int    `yaml:"cache_ttl_minutes"`
		CacheDir          string `yaml:"cache_dir"`
		UserAgent         string `yaml:"user_agent"`
	} `yaml:"index"`
	Strategy struct {
		Currency    string  `yaml:"currency"`
		OrderType   string  `yaml:"order_type"`
		CashReserve float64 `yaml:"cash_reserve"`
		MaxOrders   int     `yaml:"max_orders"`
	} `yaml:"strategy"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		Timezone   string `yaml:"timezone"`
		RunOnStart bool   `yaml:"run_on_start"`
		EODTime    string `yaml:"eod_time"`
	} `yaml:"schedule"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	TradeLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"tradelog"`
}

func (c *Config) Validate() error {
	if c.Mode != ModeDryRun && c.Mode != ModeLive {
		return fmt.Errorf("invalid mode '%s': must be '%s' or '%s'", c.Mode, ModeDryRun, ModeLive)
	}
	if c.Mode == ModeLive && (c.API.Token == "" || c.API.AccountID == "") {
		return fmt.Errorf("LIVE mode requires %s and %s", EnvToken, EnvAccountID)
	}
	if c.API.RatePerSecond <= 0 {
		return fmt.Errorf("api.rate_per_second must be positive, got %.2f", c.API.RatePerSecond)
	}
	if c.Index.URL == "" || c.Index.TickersURL == "" {
		return errors.New("index.url and index.tickers_url cannot be empty")
	}
	if c.Index.TableIndex < 0 || c.Index.TickersTableIndex < 0 {
		return errors.New("index table indexes cannot be negative")
	}
	if negative(c.Index.SkipRows) || negative(c.Index.SkipStartColumns) || negative(c.Index.SkipEndColumns) {
		return errors.New("index skip_* values cannot be negative")
	}
	if negative(c.API.MaxRetries) {
		return fmt.Errorf("api.max_retries cannot be negative, got %d", *c.API.MaxRetries)
	}
	if c.Strategy.OrderType != "MARKET" && c.Strategy.OrderType != "LIMIT" {
		return fmt.Errorf("strategy.order_type must be 'MARKET' or 'LIMIT', got '%s'", c.Strategy.OrderType)
	}
	if c.Strategy.CashReserve < 0 {
		return fmt.Errorf("strategy.cash_reserve cannot be negative, got %.2f", c.Strategy.CashReserve)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron '%s': %w", c.Schedule.Cron, err)
	}
	if _, err := time.Parse("15:04", c.Schedule.EODTime); err != nil {
		return fmt.Errorf("schedule.eod_time must be HH:MM, got '%s'", c.Schedule.EODTime)
	}
	return nil
}

func negative(v *int) bool { return v != nil && *v < 0 }

// Retries is the number of attempts per API call; 0 disables retrying.
func (c *Config) Retries() int {
	if c.API.MaxRetries == nil {
		return 3
	}
	return *c.API.MaxRetries
}

// Location is the market timezone used for schedules and log file names.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) IndexTimeout() time.Duration {
	return time.Duration(c.Index.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Index.CacheTTLMinutes) * time.Minute
}

// LoadConfig reads the YAML file, overlays secrets from the environment and validates.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.API.Token = os.Getenv(EnvToken)
	if v := os.Getenv(EnvAccountID); v != "" {
		c.API.AccountID = v
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func intPtr(v int) *int { return &v }

func (c *Config) applyDefaults() {
	c.Mode = strings.ToUpper(c.Mode)
	if c.Mode == "" {
		c.Mode = ModeDryRun
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
		if c.API.Sandbox {
			c.API.BaseURL = DefaultSandboxBaseURL
		}
	}
	if c.API.AppName == "" {
		c.API.AppName = "tinkoff-invest-bot"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.API.RatePerSecond == 0 {
		c.API.RatePerSecond = 5
	}
	if c.API.Burst == 0 {
		c.API.Burst = 1
	}
	if c.API.MaxRetries == nil {
		c.API.MaxRetries = intPtr(3)
	}

	if c.Index.URL == "" {
		c.Index.URL = DefaultIndexURL
	}
	if c.Index.TickersURL == "" {
		c.Index.TickersURL = DefaultTickersURL
	}
	// Zero is meaningful for the skip_* values, so only absent keys get defaults
	if c.Index.SkipRows == nil {
		c.Index.SkipRows = intPtr(1)
	}
	if c.Index.SkipStartColumns == nil {
		c.Index.SkipStartColumns = intPtr(1)
	}
	if c.Index.SkipEndColumns == nil {
		c.Index.SkipEndColumns = intPtr(2)
	}
	if c.Index.TimeoutSeconds == 0 {
		c.Index.TimeoutSeconds = 10
	}
	if c.Index.CacheDir == "" {
		c.Index.CacheDir = "cache/pages"
	}

	c.Strategy.OrderType = strings.ToUpper(c.Strategy.OrderType)
	if c.Strategy.OrderType == "" {
		c.Strategy.OrderType = "MARKET"
	}
	if c.Strategy.Currency == "" {
		c.Strategy.Currency = "RUB"
	}

	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "30 10 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Europe/Moscow"
	}
	if c.Schedule.EODTime == "" {
		c.Schedule.EODTime = "18:50"
	}

	if c.TradeLog.Dir == "" {
		c.TradeLog.Dir = "logs"
	}
}
