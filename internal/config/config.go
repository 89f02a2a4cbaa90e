// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token      string  `yaml:"token"`
	Mode       string  `yaml:"mode"` // polling | webhook (future)
	Username   string  `yaml:"username"`
	Workers    int     `yaml:"workers"` // polling workers
	AdminIDs   []int64 `yaml:"admin_ids"`
	SupportIDs []int64 `yaml:"support_ids"` // read-only staff
	// PremiumChatID is the chat whose membership is the granted role.
	PremiumChatID int64         `yaml:"premium_chat_id"`
	InviteTTL     time.Duration `yaml:"invite_ttl"`
	Timeout       time.Duration `yaml:"timeout"`
	RateLimit     int           `yaml:"rate_limit"` // commands per user per minute
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Initial    time.Duration `yaml:"initial"`
	Multiplier float64       `yaml:"multiplier"`
	Max        time.Duration `yaml:"max"`
	Jitter     float64       `yaml:"jitter"`
}

type LicenseConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	ProjectID string        `yaml:"project_id"`
	Timeout   time.Duration `yaml:"timeout"`
	RPS       float64       `yaml:"rps"`
	Burst     int           `yaml:"burst"`
	// Products lists product-name keywords that receive a key. Empty means all.
	Products []string    `yaml:"products"`
	Retry    RetryConfig `yaml:"retry"`
}

type PaymentConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	ShopID  string        `yaml:"shop_id"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RedemptionConfig struct {
	StaleAfter time.Duration `yaml:"stale_after"`
}

type ReferralConfig struct {
	BonusDays int `yaml:"bonus_days"`
}

type SchedulerConfig struct {
	ExpiryInterval   time.Duration `yaml:"expiry_interval"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	ReminderLead     time.Duration `yaml:"reminder_lead"`
	BatchSize        int           `yaml:"batch_size"`
	LockTTL          time.Duration `yaml:"lock_ttl"` // floor: the pass interval
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Bot        BotConfig        `yaml:"bot"`
	Log        LogConfig        `yaml:"log"`
	Admin      AdminConfig      `yaml:"admin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	License    LicenseConfig    `yaml:"license"`
	Payment    PaymentConfig    `yaml:"payment"`
	Redemption RedemptionConfig `yaml:"redemption"`
	Referral   ReferralConfig   `yaml:"referral"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Security   SecurityConfig   `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the configuration and validates what serving requires.
func LoadConfig(path string, dev bool) (*Config, error) {
	cfg, err := Load(path, dev)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML file at path, loads .env when present and lets
// environment variables override secrets. Nothing is validated.
func Load(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// Validate checks the settings the serving process cannot start without.
// Dev mode may run without a bot token.
func (c *Config) Validate() error {
	if c.Bot.Token == "" && !c.Runtime.Dev {
		return errors.New("bot.token is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Bot.Token, "BOT_TOKEN")
	setStr(&cfg.Database.URL, "DATABASE_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setStr(&cfg.License.APIKey, "LICENSE_API_KEY")
	setStr(&cfg.License.ProjectID, "LICENSE_PROJECT_ID")
	setStr(&cfg.Payment.APIKey, "PAYMENT_API_KEY")
	setStr(&cfg.Payment.ShopID, "PAYMENT_SHOP_ID")
	setStr(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")
	setStr(&cfg.Security.EncryptionKey, "ENCRYPTION_KEY")
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		cfg.Bot.AdminIDs = parseIDs(v)
	}
	if v := os.Getenv("PREMIUM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Bot.PremiumChatID = id
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Timeout <= 0 {
		cfg.Bot.Timeout = 10 * time.Second
	}
	if cfg.Bot.InviteTTL <= 0 {
		cfg.Bot.InviteTTL = 24 * time.Hour
	}
	if cfg.Bot.RateLimit <= 0 {
		cfg.Bot.RateLimit = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 12 * time.Hour
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.License.BaseURL == "" {
		cfg.License.BaseURL = "https://api.luarmor.net"
	}
	if cfg.License.Timeout <= 0 {
		cfg.License.Timeout = 10 * time.Second
	}
	if cfg.License.RPS <= 0 {
		cfg.License.RPS = 5
	}
	if cfg.License.Burst <= 0 {
		cfg.License.Burst = 5
	}
	retryDefaults(&cfg.License.Retry)

	if cfg.Payment.BaseURL == "" {
		cfg.Payment.BaseURL = "https://api.sellauth.com"
	}
	if cfg.Payment.Timeout <= 0 {
		cfg.Payment.Timeout = 8 * time.Second
	}
	retryDefaults(&cfg.Payment.Retry)

	if cfg.Redemption.StaleAfter <= 0 {
		cfg.Redemption.StaleAfter = 72 * time.Hour
	}
	if cfg.Referral.BonusDays <= 0 {
		cfg.Referral.BonusDays = 3
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = 10 * time.Minute
	}
	if cfg.Scheduler.ReminderInterval <= 0 {
		cfg.Scheduler.ReminderInterval = time.Hour
	}
	if cfg.Scheduler.ReminderLead <= 0 {
		cfg.Scheduler.ReminderLead = 72 * time.Hour
	}
	if cfg.Scheduler.BatchSize <= 0 {
		cfg.Scheduler.BatchSize = 500
	}
	// A sweep pass may run for a whole interval; its lock must not lapse first.
	if cfg.Scheduler.LockTTL < cfg.Scheduler.ExpiryInterval {
		cfg.Scheduler.LockTTL = cfg.Scheduler.ExpiryInterval
	}
}

func retryDefaults(r *RetryConfig) {
	if r.Attempts <= 0 {
		r.Attempts = 3
	}
	if r.Initial <= 0 {
		r.Initial = 500 * time.Millisecond
	}
	if r.Multiplier < 1 {
		r.Multiplier = 2
	}
	if r.Max <= 0 {
		r.Max = 5 * time.Second
	}
	if r.Jitter <= 0 {
		r.Jitter = 0.2
	}
}

func setStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func parseIDs(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil {
			out = append(out, id)
		}
	}
	return out
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
