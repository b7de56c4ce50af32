package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("PORT", "2000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "data/caelus.db")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_TIMEOUT", "60s")
	t.Setenv("OTEL_EXPORTER", "stdout")
	t.Setenv("DISABLE_AI", "false")

	cfg, err := Parse()
	require.NoError(t, err)
	require.Equal(t, ":2000", cfg.Addr())
	require.Equal(t, "gpt-4", cfg.ChatModel)
	require.Equal(t, "dall-e-3", cfg.ImageModel)
	require.Equal(t, 60*time.Second, cfg.OpenAITimeout)
	require.False(t, cfg.AIEnabled())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", ":8080")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://caelus@localhost/caelus")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TIMEOUT", "15s")
	t.Setenv("OTEL_EXPORTER", "otlp")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://caelus.app")
	t.Setenv("DISABLE_AI", "false")

	cfg, err := Parse()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, 15*time.Second, cfg.OpenAITimeout)
	require.Equal(t, []string{"http://localhost:3000", "https://caelus.app"}, cfg.AllowedOrigins)
	require.True(t, cfg.AIEnabled())

	t.Setenv("DISABLE_AI", "true")
	cfg, err = Parse()
	require.NoError(t, err)
	require.False(t, cfg.AIEnabled())
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: "sqlite", DBPath: "x.db", OTelExporter: "stdout", OpenAITimeout: time.Second}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"unknown driver":   func(c *Config) { c.DBDriver = "mysql" },
		"postgres no dsn":  func(c *Config) { c.DBDriver = "postgres" },
		"empty sqlite":     func(c *Config) { c.DBPath = " " },
		"unknown exporter": func(c *Config) { c.OTelExporter = "zipkin" },
		"zero timeout":     func(c *Config) { c.OpenAITimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
