package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config carries every runtime setting of the service and CLI.
type Config struct {
	Port           string   `env:"PORT" envDefault:"2000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath   string `env:"DB_PATH" envDefault:"data/caelus.db"`
	DBDSN    string `env:"DB_DSN"`

	OpenAIKey          string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL"`
	ChatModel          string        `env:"OPENAI_CHAT_MODEL" envDefault:"gpt-4"`
	ImageModel         string        `env:"OPENAI_IMAGE_MODEL" envDefault:"dall-e-3"`
	FallbackImageModel string        `env:"OPENAI_FALLBACK_IMAGE_MODEL"`
	FallbackChatModel  string        `env:"OPENAI_FALLBACK_CHAT_MODEL"`
	OpenAITimeout      time.Duration `env:"OPENAI_TIMEOUT" envDefault:"60s"`
	DisableAI          bool          `env:"DISABLE_AI"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	OTelEnabled     bool   `env:"OTEL_ENABLED"`
	OTelExporter    string `env:"OTEL_EXPORTER" envDefault:"stdout"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"caelus"`
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch strings.ToLower(c.OTelExporter) {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("unsupported OTEL_EXPORTER %q", c.OTelExporter)
	}
	if c.OpenAITimeout <= 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must be positive")
	}
	return nil
}

// Addr returns the listen address derived from Port.
func (c Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// AIEnabled reports whether outbound generation should be attempted.
func (c Config) AIEnabled() bool {
	return !c.DisableAI && strings.TrimSpace(c.OpenAIKey) != ""
}
