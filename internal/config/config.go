package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        int    `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure  bool          `mapstructure:"COOKIE_SECURE"`
	AdminEmail    string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string        `mapstructure:"ADMIN_PASSWORD"`

	ConciergeProvider string `mapstructure:"CONCIERGE_PROVIDER"`
	ConciergeModel    string `mapstructure:"CONCIERGE_MODEL"`
	OpenAIAPIKey      string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `mapstructure:"OPENAI_BASE_URL"`
	GeminiAPIKey      string `mapstructure:"GEMINI_API_KEY"`

	ChatRateLimit     int           `mapstructure:"CHAT_RATE_LIMIT"`
	ChatRateInterval  time.Duration `mapstructure:"CHAT_RATE_INTERVAL"`
	ChatRateMaxTokens int           `mapstructure:"CHAT_RATE_MAX_TOKENS"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPass     string `mapstructure:"MAIL_PASS"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	NotifyTo     string `mapstructure:"NOTIFY_TO"`
	DashboardURL string `mapstructure:"DASHBOARD_URL"`

	CORSOrigins      string        `mapstructure:"CORS_ORIGINS"`
	ConversionPolicy string        `mapstructure:"CONVERSION_POLICY"`
	BoardIdleTTL     time.Duration `mapstructure:"BOARD_IDLE_TTL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"PORT":                 8080,
	"DATABASE_URL":         "",
	"REDIS_URL":            "",
	"RABBITMQ_URL":         "",
	"SESSION_SECRET":       "",
	"SESSION_TTL":          "12h",
	"COOKIE_SECURE":        false,
	"ADMIN_EMAIL":          "",
	"ADMIN_PASSWORD":       "",
	"CONCIERGE_PROVIDER":   "openai",
	"CONCIERGE_MODEL":      "",
	"OPENAI_API_KEY":       "",
	"OPENAI_BASE_URL":      "https://api.openai.com/v1",
	"GEMINI_API_KEY":       "",
	"CHAT_RATE_LIMIT":      5,
	"CHAT_RATE_INTERVAL":   "60s",
	"CHAT_RATE_MAX_TOKENS": 500,
	"MAIL_HOST":            "",
	"MAIL_PORT":            587,
	"MAIL_USER":            "",
	"MAIL_PASS":            "",
	"MAIL_FROM":            "",
	"NOTIFY_TO":            "",
	"DASHBOARD_URL":        "http://localhost:8080/admin",
	"CORS_ORIGINS":         "http://localhost:3000",
	"CONVERSION_POLICY":    "keep",
	"BOARD_IDLE_TTL":       "30m",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Split turns a comma-separated setting into a trimmed, non-empty list.
func Split(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Config) MailEnabled() bool {
	return c.MailHost != "" && len(Split(c.NotifyTo)) > 0
}
