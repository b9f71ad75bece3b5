// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Workers  int    `yaml:"workers"` // notification dispatch workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WebhookConfig struct {
	Port       int    `yaml:"port"`
	Provider   string `yaml:"provider"`    // provider name recorded on idempotency markers
	HMACSecret string `yaml:"hmac_secret"` // shared secret for signature verification
	RateLimit  int    `yaml:"rate_limit"`  // max deliveries per minute per remote
}

type RetryConfig struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type PlatformConfig struct {
	// DefaultFeePercent applies only to merchants without a plan row; the
	// plan-configured percentage is authoritative everywhere else.
	DefaultFeePercent string `yaml:"default_fee_percent"`
	// DefaultCommissionPercent applies to attributions without a per-link rate.
	DefaultCommissionPercent string `yaml:"default_commission_percent"`
}

type SchedulerConfig struct {
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
	StaleSweepInterval  time.Duration `yaml:"stale_sweep_interval"`
	StalePaymentAfter   time.Duration `yaml:"stale_payment_after"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Retry     RetryConfig     `yaml:"retry"`
	Platform  PlatformConfig  `yaml:"platform"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Webhook.Provider == "" {
		cfg.Webhook.Provider = "chargegate"
	}
	if cfg.Webhook.RateLimit <= 0 {
		cfg.Webhook.RateLimit = 120
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = 100 * time.Millisecond
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 4
	}
	if cfg.Platform.DefaultFeePercent == "" {
		cfg.Platform.DefaultFeePercent = "10"
	}
	if cfg.Platform.DefaultCommissionPercent == "" {
		cfg.Platform.DefaultCommissionPercent = "20"
	}
	if cfg.Scheduler.ExpirySweepInterval <= 0 {
		cfg.Scheduler.ExpirySweepInterval = time.Hour
	}
	if cfg.Scheduler.StaleSweepInterval <= 0 {
		cfg.Scheduler.StaleSweepInterval = 15 * time.Minute
	}
	if cfg.Scheduler.StalePaymentAfter <= 0 {
		cfg.Scheduler.StalePaymentAfter = 24 * time.Hour
	}
	if cfg.Admin.JWTTTL <= 0 {
		cfg.Admin.JWTTTL = 30 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Webhook.HMACSecret == "" {
		return nil, errors.New("webhook.hmac_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
