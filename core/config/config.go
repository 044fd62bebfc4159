package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultBaleAPIURL is the public Bale Bot API endpoint. Bale speaks the
// Telegram Bot API dialect, so the same client code works against it.
const DefaultBaleAPIURL = "https://tapi.bale.ai"

// BaleConfig holds Bale messenger settings for the bot.
type BaleConfig struct {
	Token   string `yaml:"token" envconfig:"BALE_BOT_TOKEN"`
	APIURL  string `yaml:"api_url" envconfig:"BALE_API_URL"`
	AdminID int64  `yaml:"admin_id" envconfig:"BALE_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"BALE_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"BALE_LONGPOLL_TIMEOUT_SECONDS"`
}

// GameConfig points to the mini-app the bot launches for registered players.
type GameConfig struct {
	URL string `yaml:"url" envconfig:"GAME_URL"`
}

// BackendConfig locates the game backend that owns player records.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"API_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"API_TIMEOUT_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Stacks      string `yaml:"stacks"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeLongpoll selects long-polling mode for Bale updates. It is the
	// only supported mode: the cursor poller is the single component allowed
	// to initiate fetch cycles.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateMessage identifies text message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateContact identifies contact-share updates for rate limit exclusions.
	UpdateContact = "contact"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "message": standard text messages
// - "contact": contact-share payloads
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration of the registration bot.
type Config struct {
	Bale      BaleConfig      `yaml:"bale"`
	Game      GameConfig      `yaml:"game"`
	Backend   BackendConfig   `yaml:"backend"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Bale.Token == "" {
		return fmt.Errorf("bale token is required")
	}
	if strings.TrimSpace(cfg.Bale.APIURL) == "" {
		cfg.Bale.APIURL = DefaultBaleAPIURL
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Bale.RunMode))
	if rm == "" || rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	if rm != RunModeLongpoll {
		return fmt.Errorf("invalid bale.run_mode %q; allowed: longpoll", cfg.Bale.RunMode)
	}
	if cfg.Bale.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("bale.longpoll_timeout_seconds must be >= 0")
	}
	cfg.Bale.RunMode = rm

	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if cfg.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must be >= 0")
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 5
	}

	if strings.TrimSpace(cfg.Game.URL) == "" {
		return fmt.Errorf("game.url is required")
	}

	allowed := map[string]struct{}{
		UpdateMessage: {},
		UpdateContact: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: message, contact", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
