package bot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/orderbot/core/config"
)

var configEnv = []string{
	"BOT_TOKEN", "CHANNEL_ID", "TELEGRAM_ADMIN_ID", "TELEGRAM_RUN_MODE",
	"SESSION_STORE", "SESSION_TTL", "REDIS_ADDR", "ORDER_LANGUAGE", "ORDER_TIMEZONE",
	"DB_ENABLED", "DB_HOST", "DB_NAME", "DB_USER", "METRICS_LISTEN",
}

// isolateEnv clears config variables and points DOTENV_PATH at a missing file.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		}
	}
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadReportsEveryMissingSetting(t *testing.T) {
	isolateEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, coreconfig.ErrMissing))
	assert.Contains(t, err.Error(), "BOT_TOKEN")
	assert.Contains(t, err.Error(), "CHANNEL_ID")
}

func TestLoadFromYAML(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "config.yaml", `
telegram:
  token: "123:abc"
  admin_id: 7
channel:
  id: "@simorgh_orders"
order:
  language: EN
  timezone: Asia/Tehran
session:
  ttl: 2h
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.Telegram.AdminID)
	assert.Equal(t, "@simorgh_orders", cfg.Channel.ID)
	assert.Equal(t, "en", cfg.Order.Language)
	assert.Equal(t, "Asia/Tehran", cfg.Order.Location().String())
	assert.Equal(t, 2*time.Hour, cfg.SessionExpiry())
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, coreconfig.SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, coreconfig.DefaultMetricsPath, cfg.Metrics.Path)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "config.yaml", "telegram:\n  token: from-yaml\nchannel:\n  id: \"-1001\"\n")
	t.Setenv("CHANNEL_ID", "-100987654321")
	t.Setenv("SESSION_TTL", "-1s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Telegram.Token)
	assert.Equal(t, "-100987654321", cfg.Channel.ID)
	assert.Zero(t, cfg.SessionExpiry())
	assert.Equal(t, time.Local, cfg.Order.Location())
	assert.Equal(t, "fa", cfg.Order.Language)
}

func TestLoadFromDotEnv(t *testing.T) {
	isolateEnv(t)
	env := writeFile(t, ".env", "BOT_TOKEN=dotenv-token\nCHANNEL_ID=@simorgh_orders\n")
	t.Setenv("DOTENV_PATH", env)
	t.Cleanup(func() {
		_ = os.Unsetenv("BOT_TOKEN")
		_ = os.Unsetenv("CHANNEL_ID")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.Telegram.Token)
	assert.Equal(t, "@simorgh_orders", cfg.Channel.ID)
}

func TestNormalizeRejectsInvalidValues(t *testing.T) {
	cfg := Config{}
	cfg.Telegram.Token = "t"
	cfg.Channel.ID = "simorgh"
	cfg.Order.Language = "de"
	cfg.Order.Timezone = "Mars/Olympus"
	cfg.Database.Enabled = true

	err := cfg.Normalize()
	require.Error(t, err)
	for _, want := range []string{"channel.id", "order.language", "order.timezone", "DB_HOST", "DB_NAME", "DB_USER"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestChannelIDForms(t *testing.T) {
	for _, id := range []string{"-1001234567890", "12345", "@simorgh", " @Simorgh_Exchange "} {
		ch := ChannelConfig{ID: id}
		assert.NoError(t, ch.normalize(), id)
	}
	for _, id := range []string{"simorgh", "@ab", "-100x", "@1abc"} {
		ch := ChannelConfig{ID: id}
		assert.Error(t, ch.normalize(), id)
	}
}
