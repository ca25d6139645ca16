package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5, cfg.ChatRateLimit)
	assert.Equal(t, time.Minute, cfg.ChatRateInterval)
	assert.Equal(t, 500, cfg.ChatRateMaxTokens)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "keep", cfg.ConversionPolicy)
	assert.False(t, cfg.PersistenceEnabled())
	assert.False(t, cfg.MailEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/ontriq?sslmode=disable")
	t.Setenv("CHAT_RATE_INTERVAL", "30s")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("NOTIFY_TO", "team@ontriq.com, sales@ontriq.com")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ChatRateInterval)
	assert.True(t, cfg.PersistenceEnabled())
	assert.True(t, cfg.MailEnabled())
	assert.Equal(t, []string{"team@ontriq.com", "sales@ontriq.com"}, Split(cfg.NotifyTo))
}

func TestSplitDropsBlanks(t *testing.T) {
	assert.Nil(t, Split(" , ,"))
	assert.Equal(t, []string{"a", "b"}, Split("a,,b "))
}
