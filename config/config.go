package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/futbot/market"
	"github.com/rustyeddy/futbot/sim"
	"github.com/rustyeddy/futbot/strategy"
)

// Config is the complete bot configuration.
type Config struct {
	Log      LogConfig      `json:"log" yaml:"log"`
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Notify   NotifyConfig   `json:"notify" yaml:"notify"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warning, error
	Format string `json:"format" yaml:"format"` // text or json
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ExchangeConfig holds the execution settings for the traded symbol.
type ExchangeConfig struct {
	Name        string  `json:"name" yaml:"name"`
	Symbol      string  `json:"symbol" yaml:"symbol"`
	MaxPosition float64 `json:"max_position" yaml:"max_position"`
	// PositionSize is the amount of every entry order.
	PositionSize float64 `json:"position_size" yaml:"position_size"`
	Leverage     int     `json:"leverage" yaml:"leverage"`
	MarginType   string  `json:"margin_type" yaml:"margin_type"` // isolated or cross
	FeeRate      float64 `json:"fee_rate" yaml:"fee_rate"`
	DryRun       bool    `json:"dry_run" yaml:"dry_run"`
	Testnet      bool    `json:"testnet" yaml:"testnet"`

	SimulationInitialBalance float64 `json:"simulation_initial_balance" yaml:"simulation_initial_balance"`

	RetryCount    int    `json:"retry_count" yaml:"retry_count"`
	RetryInterval int    `json:"retry_interval" yaml:"retry_interval"` // seconds
	Timeframe     string `json:"timeframe" yaml:"timeframe"`

	SameSidePolicy string `json:"same_side_policy" yaml:"same_side_policy"`

	// Usually supplied through FUTBOT_API_KEY / FUTBOT_API_SECRET.
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
}

// RetryDelay is RetryInterval as a duration.
func (e ExchangeConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryInterval) * time.Second
}

// StrategyConfig selects a strategy and its parameters.
type StrategyConfig struct {
	Name            string `json:"name" yaml:"name"`
	strategy.Params `yaml:",inline"`
}

// NotifyConfig configures outbound notifications.
type NotifyConfig struct {
	Level          string `json:"level" yaml:"level"` // minimum level forwarded to sinks
	DiscordWebhook string `json:"discord_webhook,omitempty" yaml:"discord_webhook,omitempty"`
	MentionUserID  string `json:"mention_user_id,omitempty" yaml:"mention_user_id,omitempty"`
	// HubAddr serves the websocket event hub, e.g. ":8090". Empty disables it.
	HubAddr string `json:"hub_addr,omitempty" yaml:"hub_addr,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // none, csv, sqlite or postgres
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	BalanceFile string `json:"balance_file,omitempty" yaml:"balance_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN         string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// LoadFromFile reads a YAML or JSON file over the defaults, applies
// environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	e := c.Exchange
	if e.Name == "" {
		return fmt.Errorf("exchange.name is required")
	}
	if e.Symbol == "" {
		return fmt.Errorf("exchange.symbol is required")
	}
	if e.MaxPosition <= 0 {
		return fmt.Errorf("exchange.max_position must be positive")
	}
	if e.PositionSize <= 0 || e.PositionSize > e.MaxPosition {
		return fmt.Errorf("exchange.position_size must be positive and at most max_position")
	}
	if e.Leverage < 1 {
		return fmt.Errorf("exchange.leverage must be at least 1")
	}
	switch e.MarginType {
	case "", "isolated", "cross":
	default:
		return fmt.Errorf("exchange.margin_type must be 'isolated' or 'cross'")
	}
	if e.FeeRate < 0 || e.FeeRate >= 1 {
		return fmt.Errorf("exchange.fee_rate must be in [0, 1)")
	}
	if e.RetryCount < 1 {
		return fmt.Errorf("exchange.retry_count must be at least 1")
	}
	if e.RetryInterval < 0 {
		return fmt.Errorf("exchange.retry_interval must not be negative")
	}
	if _, err := market.ParseTimeframe(e.Timeframe); err != nil {
		return fmt.Errorf("exchange.timeframe: %w", err)
	}
	if _, err := sim.ParseSameSidePolicy(e.SameSidePolicy); err != nil {
		return fmt.Errorf("exchange.same_side_policy: %w", err)
	}
	if e.DryRun && e.SimulationInitialBalance <= 0 {
		return fmt.Errorf("exchange.simulation_initial_balance must be positive in dry run")
	}
	if !e.DryRun && (e.APIKey == "" || e.APISecret == "") {
		return fmt.Errorf("live trading needs FUTBOT_API_KEY and FUTBOT_API_SECRET")
	}

	if _, err := strategy.New(c.Strategy.Name, c.Strategy.Params); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}

	j := c.Journal
	switch j.Type {
	case "", "none":
	case "csv":
		if j.TradesFile == "" || j.BalanceFile == "" {
			return fmt.Errorf("journal trades_file and balance_file required for CSV type")
		}
	case "sqlite":
		if j.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "postgres":
		if j.DSN == "" {
			return fmt.Errorf("journal dsn (or FUTBOT_POSTGRES_DSN) required for Postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv', 'sqlite' or 'postgres'")
	}
	return nil
}

// Default returns a dry-run configuration with sensible defaults
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Exchange: ExchangeConfig{
			Name:                     "binance",
			Symbol:                   "BTC/USDT",
			MaxPosition:              0.01,
			PositionSize:             0.01,
			Leverage:                 3,
			MarginType:               "isolated",
			FeeRate:                  0.0005,
			DryRun:                   true,
			SimulationInitialBalance: 1000,
			RetryCount:               3,
			RetryInterval:            60,
			Timeframe:                "1h",
			SameSidePolicy:           string(sim.SameSideReject),
		},
		Strategy: StrategyConfig{
			Name:   "rci",
			Params: strategy.Params{Period: 9, Threshold: 80},
		},
		Notify: NotifyConfig{
			Level: "info",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./futbot.db",
		},
	}
}

// String renders the configuration as YAML with secrets masked.
func (c Config) String() string {
	c.Exchange.APIKey = mask(c.Exchange.APIKey)
	c.Exchange.APISecret = mask(c.Exchange.APISecret)
	c.Notify.DiscordWebhook = mask(c.Notify.DiscordWebhook)
	c.Journal.DSN = mask(c.Journal.DSN)
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
