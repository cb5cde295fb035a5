package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrMissing marks a required setting that was not provided by any source.
var ErrMissing = errors.New("missing required setting")

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
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
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// SessionConfig selects the conversation session backend.
// A zero TTL falls back to DefaultSessionTTL, a negative TTL disables expiry.
type SessionConfig struct {
	Store string        `yaml:"store" envconfig:"SESSION_STORE"`
	TTL   time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// RedisConfig holds connection settings for the optional Redis session store.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
	Path   string `yaml:"path"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// SessionStoreMemory keeps sessions inside the process.
	SessionStoreMemory = "memory"
	// SessionStoreRedis keeps sessions in Redis.
	SessionStoreRedis = "redis"

	// DefaultSessionTTL is the idle time after which a session is evicted.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultRedisPrefix namespaces session keys in Redis.
	DefaultRedisPrefix = "orderbot:session:"
	// DefaultMetricsPath is the HTTP path serving Prometheus metrics.
	DefaultMetricsPath = "/metrics"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
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
	Redis     RedisConfig     `yaml:"redis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CoreConfig returns the receiver so Config satisfies cmd.ConfigCarrier directly.
func (c *Config) CoreConfig() *Config {
	return c
}

// Load reads core configuration from .env, YAML and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadInto fills dst from the sources in precedence order: a .env file
// (DOTENV_PATH, default ".env"), the YAML file at path and finally the
// process environment. Missing .env or YAML files are not an error.
func LoadInto(path string, dst any) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, dst); err != nil {
				return fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("DOTENV_PATH"))
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Missing builds an ErrMissing error naming the env variable and the YAML key.
func Missing(envKey, yamlKey string) error {
	return fmt.Errorf("%w: %s (%s)", ErrMissing, envKey, yamlKey)
}

// Normalize performs validation of required configuration fields and adjusts defaults.
// All problems are reported together.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	var errs []error
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		errs = append(errs, Missing("BOT_TOKEN", "telegram.token"))
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			errs = append(errs, fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'"))
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			errs = append(errs, fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'"))
		}
		if cfg.Webhook.Port <= 0 {
			errs = append(errs, fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'"))
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			errs = append(errs, fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode))
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			errs = append(errs, fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v))
			continue
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeSession(cfg); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	return errors.Join(errs...)
}

func normalizeSession(cfg *Config) error {
	store := strings.ToLower(strings.TrimSpace(cfg.Session.Store))
	if store == "" {
		store = SessionStoreMemory
	}
	cfg.Session.Store = store
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if strings.TrimSpace(cfg.Redis.Prefix) == "" {
		cfg.Redis.Prefix = DefaultRedisPrefix
	}

	switch store {
	case SessionStoreMemory:
		return nil
	case SessionStoreRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return Missing("REDIS_ADDR", "redis.addr")
		}
		return nil
	default:
		return fmt.Errorf("invalid session.store %q; allowed: memory, redis", cfg.Session.Store)
	}
}

// SessionExpiry returns the effective idle TTL; zero means sessions never expire.
func (c *Config) SessionExpiry() time.Duration {
	if c == nil || c.Session.TTL < 0 {
		return 0
	}
	return c.Session.TTL
}
