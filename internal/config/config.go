// Package config holds the relay configuration. Values load from a JSON5
// file with environment variable overrides; secrets come from env only and
// are never persisted to disk.
package config

// Config is the root configuration for the topic bridge relay.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Telegram  TelegramConfig  `json:"telegram"`
	VK        VKConfig        `json:"vk,omitempty"`
	External  ExternalConfig  `json:"external,omitempty"`
	AI        AIConfig        `json:"ai,omitempty"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// ServerConfig configures the webhook HTTP listener.
type ServerConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	WebhookSecret string `json:"-"` // from env TOPICBRIDGE_WEBHOOK_SECRET only
	RateLimitRPM  int    `json:"rate_limit_rpm,omitempty"` // per-chat webhook rate limit
}

// TelegramConfig configures the staff-side Telegram bot.
// Token is NEVER read from the config file, only from env TOPICBRIDGE_TELEGRAM_TOKEN.
type TelegramConfig struct {
	Token          string `json:"-"`
	StaffChatID    int64  `json:"staff_chat_id"`             // forum supergroup holding the topics
	WelcomeMessage string `json:"welcome_message,omitempty"` // reply to /start, default used when empty
}

// VKConfig configures the VK community callback channel.
type VKConfig struct {
	Token        string `json:"-"`                      // from env TOPICBRIDGE_VK_TOKEN only
	APIBase      string `json:"api_base,omitempty"`     // override for testing
	Confirmation string `json:"confirmation,omitempty"` // callback confirmation code echoed to VK
}

// ExternalConfig configures the generic external webhook channel.
type ExternalConfig struct {
	Endpoint string `json:"endpoint,omitempty"` // outbound delivery URL
	Token    string `json:"-"`                  // from env TOPICBRIDGE_EXTERNAL_TOKEN only
}

// AIConfig configures the draft-answer service used by /ai_generate.
type AIConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"-"` // from env TOPICBRIDGE_AI_API_KEY only
}

// DatabaseConfig selects the storage backend.
// PostgresDSN is NEVER read from the config file, only from env
// TOPICBRIDGE_POSTGRES_DSN. When empty the relay runs on SQLite.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
	SQLitePath  string `json:"sqlite_path,omitempty"` // default ~/.topicbridge/relay.db
}

// TelemetryConfig configures OpenTelemetry export for dispatch spans.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`     // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool   `json:"insecure,omitempty"`     // plaintext export for local dev
	ServiceName string `json:"service_name,omitempty"` // default "topicbridge"
}
