package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds is the getUpdates timeout; 0 means default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile is "debug", "dev" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// SessionConfig controls chat sessions and the scene idle timeout.
type SessionConfig struct {
	IdleTimeoutSeconds int    `yaml:"idle_timeout_seconds" envconfig:"SESSION_IDLE_TIMEOUT_SECONDS"`
	SweepSchedule      string `yaml:"sweep_schedule" envconfig:"SESSION_SWEEP_SCHEDULE"`
	SweepAfterMinutes  int    `yaml:"sweep_after_minutes" envconfig:"SESSION_SWEEP_AFTER_MINUTES"`
}

// IdleTimeout returns the scene inactivity window.
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// SweepAfter returns how long a scene-less session may stay untouched before eviction.
func (s SessionConfig) SweepAfter() time.Duration {
	return time.Duration(s.SweepAfterMinutes) * time.Minute
}

// DispatchConfig bounds update processing.
type DispatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" envconfig:"DISPATCH_MAX_CONCURRENT"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	DefaultIdleTimeoutSeconds = 60
	DefaultSweepSchedule      = "@every 30m"
	DefaultSweepAfterMinutes  = 720
	DefaultMaxConcurrent      = 16
)

// RateLimitConfig holds per-user throttling settings.
// ExcludeUpdates lists update kinds ("callback", "message") that bypass the limit.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
}

// Decode reads a YAML file into out and overlays environment variables.
// out must be a pointer to a struct.
func Decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := envconfig.Process("", out); err != nil {
		return fmt.Errorf("config: process env: %w", err)
	}
	return nil
}

// Load reads the core configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("config: telegram token is required")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch mode {
	case "", "polling":
		mode = RunModeLongpoll
	}
	switch mode {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("config: webhook.url is required in webhook mode")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("config: webhook.listen is required in webhook mode")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("config: webhook.port must be > 0 in webhook mode")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("config: telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("config: invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = mode

	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		switch key {
		case "", UpdateCallback, UpdateMessage:
			cfg.RateLimit.ExcludeUpdates[i] = key
		default:
			return fmt.Errorf("config: invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
	}

	if cfg.Session.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("config: session.idle_timeout_seconds must be >= 0")
	}
	if cfg.Session.IdleTimeoutSeconds == 0 {
		cfg.Session.IdleTimeoutSeconds = DefaultIdleTimeoutSeconds
	}
	if strings.TrimSpace(cfg.Session.SweepSchedule) == "" {
		cfg.Session.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Session.SweepAfterMinutes <= 0 {
		cfg.Session.SweepAfterMinutes = DefaultSweepAfterMinutes
	}
	if cfg.Dispatch.MaxConcurrent <= 0 {
		cfg.Dispatch.MaxConcurrent = DefaultMaxConcurrent
	}
	return nil
}
