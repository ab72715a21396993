package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clinichub/clinic-gateway/internal/registry"
)

// Config holds all configuration for the clinic gateway
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Messenger  MessengerConfig  `yaml:"messenger"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Models     []ModelConfig    `yaml:"models"`
	Generation GenerationConfig `yaml:"generation"`
	Session    SessionConfig    `yaml:"session"`
	Handoff    HandoffConfig    `yaml:"handoff"`
	Redis      RedisConfig      `yaml:"redis"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// MessengerConfig defines Facebook Messenger webhook settings
type MessengerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	PageToken   string `yaml:"page_token"`
	VerifyToken string `yaml:"verify_token"`
	APIBase     string `yaml:"api_base,omitempty"`
}

// ChannelsConfig defines the secondary channel configurations
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	WebChat  WebChatConfig  `yaml:"webchat"`
}

// TelegramConfig defines Telegram channel settings
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// WebChatConfig defines WebChat channel settings
type WebChatConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// ModelConfig defines one entry of the response-backend ring, in
// preference order.
type ModelConfig struct {
	Name            string `yaml:"name"`
	Kind            string `yaml:"kind"` // generative | deterministic
	Provider        string `yaml:"provider,omitempty"`
	Model           string `yaml:"model,omitempty"`
	APIKey          string `yaml:"api_key,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
	BudgetPerMinute int    `yaml:"budget_per_minute"`
	Enabled         bool   `yaml:"enabled"`
}

// GenerationConfig defines queue and rate-window settings
type GenerationConfig struct {
	Window                 string `yaml:"window"`
	CallTimeout            string `yaml:"call_timeout"`
	MaxConsecutiveFailures int    `yaml:"max_consecutive_failures"`
}

// GetWindow returns the rate window as a time.Duration
func (g *GenerationConfig) GetWindow() time.Duration {
	return parseDuration(g.Window, time.Minute)
}

// GetCallTimeout returns the per-call timeout as a time.Duration
func (g *GenerationConfig) GetCallTimeout() time.Duration {
	return parseDuration(g.CallTimeout, 30*time.Second)
}

// SessionConfig defines session store settings
type SessionConfig struct {
	IdleTimeout     string `yaml:"idle_timeout"`
	DefaultLanguage string `yaml:"default_language"`
}

// GetIdleTimeout returns the idle eviction threshold as a time.Duration
func (s *SessionConfig) GetIdleTimeout() time.Duration {
	return parseDuration(s.IdleTimeout, 30*time.Minute)
}

// HandoffConfig defines admin hand-off settings
type HandoffConfig struct {
	QuietPeriod   string `yaml:"quiet_period"`
	FollowupDelay string `yaml:"followup_delay"`
}

// GetQuietPeriod returns the operator quiet period as a time.Duration
func (h *HandoffConfig) GetQuietPeriod() time.Duration {
	return parseDuration(h.QuietPeriod, 15*time.Minute)
}

// GetFollowupDelay returns the delayed menu-prompt delay as a time.Duration
func (h *HandoffConfig) GetFollowupDelay() time.Duration {
	return parseDuration(h.FollowupDelay, time.Second)
}

// RedisConfig defines the operator bridge connection settings
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KnowledgeConfig points at an optional knowledge pack overlay
type KnowledgeConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("GATEWAY_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Server.Port)
	}
	if token := os.Getenv("MESSENGER_PAGE_TOKEN"); token != "" {
		c.Messenger.PageToken = token
	}
	if token := os.Getenv("MESSENGER_VERIFY_TOKEN"); token != "" {
		c.Messenger.VerifyToken = token
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Channels.Telegram.Token = token
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		for i := range c.Models {
			if c.Models[i].Provider == "gemini" {
				c.Models[i].APIKey = apiKey
			}
		}
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		for i := range c.Models {
			if c.Models[i].Provider == "openai" {
				c.Models[i].APIKey = apiKey
			}
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Messenger.Enabled {
		if c.Messenger.PageToken == "" {
			return fmt.Errorf("messenger page token is required")
		}
		if c.Messenger.VerifyToken == "" {
			return fmt.Errorf("messenger verify token is required")
		}
	}
	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	for _, m := range c.Models {
		switch m.Kind {
		case "generative", "deterministic":
		default:
			return fmt.Errorf("model %q has unknown kind %q", m.Name, m.Kind)
		}
		if m.Kind == "generative" && m.Provider == "" {
			return fmt.Errorf("model %q needs a provider", m.Name)
		}
	}
	return nil
}

// Ring converts the configured model list to registry descriptors. A
// deterministic fallback is appended when the config does not carry one,
// so the registry can always be constructed.
func (c *Config) Ring() []*registry.Descriptor {
	ring := make([]*registry.Descriptor, 0, len(c.Models)+1)
	hasFallback := false
	for _, m := range c.Models {
		kind := registry.KindGenerative
		if m.Kind == "deterministic" {
			kind = registry.KindDeterministic
			if m.Enabled {
				hasFallback = true
			}
		}
		ring = append(ring, &registry.Descriptor{
			Name:            m.Name,
			Kind:            kind,
			Provider:        m.Provider,
			Model:           m.Model,
			BudgetPerMinute: m.BudgetPerMinute,
			Enabled:         m.Enabled,
		})
	}
	if !hasFallback {
		ring = append(ring, &registry.Descriptor{
			Name:    "canned",
			Kind:    registry.KindDeterministic,
			Enabled: true,
		})
	}
	return ring
}
