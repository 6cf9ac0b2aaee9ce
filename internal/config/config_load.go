package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         18890,
			RateLimitRPM: 60,
		},
		Telegram: TelegramConfig{
			WelcomeMessage: "",
		},
		VK: VKConfig{
			APIBase: "https://api.vk.com/method",
		},
		Database: DatabaseConfig{
			SQLitePath: filepath.Join(home, ".topicbridge", "relay.db"),
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "topicbridge",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error; env vars alone can configure the relay.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	// Secrets live in env only.
	envStr("TOPICBRIDGE_TELEGRAM_TOKEN", &c.Telegram.Token)
	envStr("TOPICBRIDGE_VK_TOKEN", &c.VK.Token)
	envStr("TOPICBRIDGE_EXTERNAL_TOKEN", &c.External.Token)
	envStr("TOPICBRIDGE_AI_API_KEY", &c.AI.APIKey)
	envStr("TOPICBRIDGE_WEBHOOK_SECRET", &c.Server.WebhookSecret)
	envStr("TOPICBRIDGE_POSTGRES_DSN", &c.Database.PostgresDSN)

	// Non-secret overrides.
	envStr("TOPICBRIDGE_HOST", &c.Server.Host)
	if v := os.Getenv("TOPICBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("TOPICBRIDGE_STAFF_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.StaffChatID = id
		}
	}
	envStr("TOPICBRIDGE_VK_CONFIRMATION", &c.VK.Confirmation)
	envStr("TOPICBRIDGE_EXTERNAL_ENDPOINT", &c.External.Endpoint)
	envStr("TOPICBRIDGE_AI_ENDPOINT", &c.AI.Endpoint)
	envStr("TOPICBRIDGE_SQLITE_PATH", &c.Database.SQLitePath)

	// Telemetry
	envStr("TOPICBRIDGE_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("TOPICBRIDGE_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("TOPICBRIDGE_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("TOPICBRIDGE_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TOPICBRIDGE_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}
}

// Validate checks that the config can actually run the relay.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set TOPICBRIDGE_TELEGRAM_TOKEN)")
	}
	if c.Telegram.StaffChatID == 0 {
		return fmt.Errorf("staff chat id is required (telegram.staff_chat_id or TOPICBRIDGE_STAFF_CHAT_ID)")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry enabled but no endpoint configured")
	}
	return nil
}
