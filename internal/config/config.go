// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type AppConfig struct {
	Name     string `yaml:"name"` // prefix of redis keys
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
	Version  string `yaml:"version"`
	Commit   string `yaml:"commit"`
}

type BotConfig struct {
	Token         string `yaml:"token"`
	Mode          string `yaml:"mode"` // polling | webhook
	WebhookPath   string `yaml:"webhook_path"`
	WebhookSecret string `yaml:"webhook_secret"`
	Username      string `yaml:"username"`
	Workers       int    `yaml:"workers"`
	BotType       string `yaml:"bot_type"` // customer | vendors
	// RateLimit is the number of commands and callbacks a chat may send per RateWindow.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TLS      bool          `yaml:"tls"`
	TTL      time.Duration `yaml:"ttl"` // currency catalog cache
}

type AssistantConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type FlowConfig struct {
	TTL            time.Duration `yaml:"ttl"`
	ClearOnSuccess *bool         `yaml:"clear_on_success"`
}

// ShouldClear reports the flow's clear-on-success policy, falling back to def when unset.
func (f FlowConfig) ShouldClear(def bool) bool {
	if f.ClearOnSuccess == nil {
		return def
	}
	return *f.ClearOnSuccess
}

type FlowsConfig struct {
	ExchangeRate   FlowConfig `yaml:"exchange_rate"`
	PaymentAccount FlowConfig `yaml:"payment_account"`
}

type ExchangeRateConfig struct {
	MinRate          string `yaml:"min_rate"` // empty means no lower bound
	MaxDecimalPlaces int32  `yaml:"max_decimal_places"`
}

// MinRateDecimal returns the configured lower bound, invalid when unset.
func (c ExchangeRateConfig) MinRateDecimal() (decimal.NullDecimal, error) {
	if strings.TrimSpace(c.MinRate) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(c.MinRate))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("exchange_rate.min_rate: %w", err)
	}
	return decimal.NewNullDecimal(d), nil
}

type SchedulerConfig struct {
	ExchangeRateInterval time.Duration `yaml:"exchange_rate_interval"` // 0 disables
}

type Config struct {
	App          AppConfig          `yaml:"app"`
	Bot          BotConfig          `yaml:"bot"`
	Log          LogConfig          `yaml:"log"`
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Assistant    AssistantConfig    `yaml:"assistant"`
	Flows        FlowsConfig        `yaml:"flows"`
	ExchangeRate ExchangeRateConfig `yaml:"exchange_rate"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DefaultExchangeRateTTL   = time.Hour
	DefaultPaymentAccountTTL = 20 * time.Minute
)

// LoadConfig reads flags from args (without the program name), loads .env when present
// and then the yaml file.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("app", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config yaml")
	envPath := fs.String("env", ".env", "path to dotenv file")
	dev := fs.Bool("dev", false, "development mode")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return Load(*configPath, *dev)
}

// Load parses the yaml file at path, applies environment overrides and defaults and
// validates the result.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Bot.Token, "TELEGRAM_BOT_TOKEN")
	override(&c.Bot.WebhookSecret, "TELEGRAM_WEBHOOK_SECRET")
	override(&c.Redis.URL, "REDIS_URL")
	override(&c.Redis.Password, "REDIS_PASSWORD")
	override(&c.Database.URL, "DATABASE_URL")
	override(&c.Assistant.APIKey, "ASSISTANT_API_KEY")
	override(&c.HTTP.APIKey, "API_KEY")
	override(&c.HTTP.JWTSecret, "API_JWT_SECRET")
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "exchange-assistant"
	}
	if c.App.Language == "" {
		c.App.Language = "en"
	}
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.WebhookPath == "" {
		c.Bot.WebhookPath = "/webhooks/v1/telegram"
	}
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	if c.Bot.BotType == "" {
		c.Bot.BotType = "vendors"
	}
	if c.Bot.RateLimit <= 0 {
		c.Bot.RateLimit = 20
	}
	if c.Bot.RateWindow <= 0 {
		c.Bot.RateWindow = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL, 10*time.Minute)
	if c.Assistant.Timeout <= 0 {
		c.Assistant.Timeout = 15 * time.Second
	}
	c.Flows.ExchangeRate.TTL = normalizeTTL(c.Flows.ExchangeRate.TTL, DefaultExchangeRateTTL)
	c.Flows.PaymentAccount.TTL = normalizeTTL(c.Flows.PaymentAccount.TTL, DefaultPaymentAccountTTL)
}

func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Bot.Mode != "polling" && c.Bot.Mode != "webhook" {
		return fmt.Errorf("bot.mode %q: want polling or webhook", c.Bot.Mode)
	}
	if c.Bot.Mode == "webhook" && c.App.BaseURL == "" {
		return errors.New("app.base_url is required in webhook mode")
	}
	if c.Bot.BotType != "customer" && c.Bot.BotType != "vendors" {
		return fmt.Errorf("bot.bot_type %q: want customer or vendors", c.Bot.BotType)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Assistant.BaseURL == "" {
		return errors.New("assistant.base_url is required")
	}
	if c.ExchangeRate.MaxDecimalPlaces < 0 {
		return errors.New("exchange_rate.max_decimal_places must not be negative")
	}
	if _, err := c.ExchangeRate.MinRateDecimal(); err != nil {
		return err
	}
	return nil
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
