package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.AdvertiseAddress)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Empty(t, cfg.Redis.Address)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"email", "user", "user_id"}, cfg.Identity.QueryParams)
	assert.Equal(t, []string{"email", "user"}, cfg.Identity.CookieNames)
	assert.True(t, cfg.Identity.LastKnownFallback)
	assert.Equal(t, "user", cfg.Identity.CookieName)
	assert.Equal(t, 10*time.Minute, cfg.Room.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, int64(65536), cfg.WebSocket.MaxMessageSize)
	assert.Equal(t, 24*time.Hour, cfg.Token.TTL)
	assert.Equal(t, "index.html", cfg.Assets.Index)
	assert.Equal(t, "./public", cfg.Assets.Storage().Local.BasePath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("KAFKA_ENABLED", "true")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.True(t, cfg.Kafka.Enabled)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  base_url: https://chat.example.com
room:
  idle_timeout: 90s
identity:
  last_known_fallback: false
  query_params: [uid]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, v.ReadInConfig())

	cfg, err := load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Room.IdleTimeout)
	assert.False(t, cfg.Identity.LastKnownFallback)
	assert.Equal(t, []string{"uid"}, cfg.Identity.QueryParams)
}
