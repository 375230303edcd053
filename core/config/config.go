package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
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

// AccessConfig defines the layered authorization policy evaluated by the gate.
// The check order is fixed by the gate; this config only switches checks on and off.
type AccessConfig struct {
	AdminIDs    []int64 `yaml:"admin_ids" envconfig:"ADMIN_IDS"`
	AllowGroups bool    `yaml:"allow_groups" envconfig:"ALLOW_GROUPS"`

	RequirePhone      bool     `yaml:"require_phone" envconfig:"REQUIRE_PHONE"`
	AllowedPhones     []string `yaml:"allowed_phones" envconfig:"ALLOWED_PHONES"`
	AllowedPhonesFile string   `yaml:"allowed_phones_file" envconfig:"ALLOWED_PHONES_FILE"`

	RequireChannel bool   `yaml:"require_channel" envconfig:"REQUIRE_CHANNEL"`
	ChannelID      int64  `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	ChannelInvite  string `yaml:"channel_invite" envconfig:"CHANNEL_INVITE"`

	RequireCode bool `yaml:"require_code" envconfig:"REQUIRE_CODE"`
	// StaticCode is a shared secondary credential accepted at the code prompt
	// alongside per-user one-time codes. Empty disables it.
	StaticCode string `yaml:"static_code" envconfig:"ACCESS_CODE"`
}

// OTPConfig bounds the one-time-code lifecycle.
type OTPConfig struct {
	Length       int `yaml:"length" envconfig:"OTP_LENGTH"`
	TTLSeconds   int `yaml:"ttl_seconds" envconfig:"OTP_TTL_SECS"`
	Attempts     int `yaml:"attempts" envconfig:"OTP_ATTEMPTS"`
	SweepSeconds int `yaml:"sweep_seconds" envconfig:"OTP_SWEEP_SECS"`
}

// WebAppConfig describes the embedded confirmation form and its HTTP listener.
type WebAppConfig struct {
	Listen string `yaml:"listen" envconfig:"WEBAPP_LISTEN"`
	// URL is the externally reachable address of the form, shown to users
	// inside Telegram. Empty means the form is not deployed.
	URL string `yaml:"url" envconfig:"WEBAPP_URL"`
}

// StorageConfig selects the user profile store backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend" envconfig:"STORAGE_BACKEND"`
	FilePath string         `yaml:"file_path" envconfig:"STORAGE_FILE_PATH"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds connection settings for the Postgres profile store.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// RateLimitConfig holds settings for per-user rate limiting.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageFile keeps profiles in a JSON snapshot on disk.
	StorageFile = "file"
	// StoragePostgres keeps profiles in a Postgres table.
	StoragePostgres = "postgres"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// Config aggregates the full application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Access    AccessConfig    `yaml:"access"`
	OTP       OTPConfig       `yaml:"otp"`
	WebApp    WebAppConfig    `yaml:"webapp"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case os.IsNotExist(err):
		// Env-only deployments run without a config file.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Access.RequireChannel && cfg.Access.ChannelID == 0 {
		return fmt.Errorf("access.channel_id is required when access.require_channel is set")
	}

	if cfg.OTP.Length <= 0 {
		cfg.OTP.Length = 6
	}
	if cfg.OTP.TTLSeconds <= 0 {
		cfg.OTP.TTLSeconds = 600
	}
	if cfg.OTP.Attempts <= 0 {
		cfg.OTP.Attempts = 3
	}
	if cfg.OTP.SweepSeconds < 0 {
		return fmt.Errorf("otp.sweep_seconds must be >= 0")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if backend == "" {
		backend = StorageFile
	}
	switch backend {
	case StorageFile:
		if strings.TrimSpace(cfg.Storage.FilePath) == "" {
			cfg.Storage.FilePath = "users.json"
		}
	case StoragePostgres:
		if strings.TrimSpace(cfg.Storage.Database.Host) == "" {
			return fmt.Errorf("storage.database.host is required when storage.backend is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: file, postgres", cfg.Storage.Backend)
	}
	cfg.Storage.Backend = backend

	if strings.TrimSpace(cfg.WebApp.Listen) == "" {
		cfg.WebApp.Listen = ":8080"
	}
	cfg.WebApp.URL = strings.TrimRight(strings.TrimSpace(cfg.WebApp.URL), "/")

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

// IsAdmin reports whether the given user id belongs to the admin set.
func (a AccessConfig) IsAdmin(uid int64) bool {
	for _, id := range a.AdminIDs {
		if id == uid {
			return true
		}
	}
	return false
}

// ParseAdminIDs parses a comma-separated id list, tolerating spaces.
func ParseAdminIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(strings.ReplaceAll(raw, " ", ""), ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", p, err)
		}
		out = append(out, id)
	}
	return out, nil
}
