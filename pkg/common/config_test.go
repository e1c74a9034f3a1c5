package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearConfigEnv isolates each test from ambient config overrides
func clearConfigEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONFIG_JSON", "")
}

func TestConfigManagerDefaults(t *testing.T) {
	clearConfigEnv(t)

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	config := cm.GetConfig()

	assert.Equal(t, types.ModeLocal, config.Mode)
	assert.Equal(t, 1994, config.Gateway.HTTP.Port)
	assert.Equal(t, "0.0.0.0", config.Gateway.HTTP.Host)
	assert.Equal(t, 30*time.Second, config.Gateway.ShutdownTimeout)
	assert.Equal(t, []string{"localhost:6379"}, config.Database.Redis.Addrs)
	assert.Equal(t, types.RedisModeSingle, config.Database.Redis.Mode)
	assert.Equal(t, 1500, config.Transport.MaxReplyLength)
	assert.Equal(t, 10*time.Minute, config.Drive.PendingAuthTTL)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/drive"}, config.Drive.Scopes)
	assert.Equal(t, "gpt-4o-mini", config.Summary.Model)
	assert.False(t, config.Admin.Enabled)
}

func TestConfigManagerJSONOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_JSON", `{"mode":"remote","gateway":{"http":{"port":8080},"authToken":"sekret"}}`)

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	config := cm.GetConfig()

	// Overridden keys win
	assert.Equal(t, types.ModeRemote, config.Mode)
	assert.Equal(t, 8080, config.Gateway.HTTP.Port)
	assert.Equal(t, "sekret", config.Gateway.AuthToken)

	// Untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", config.Gateway.HTTP.Host)
	assert.Equal(t, 1500, config.Transport.MaxReplyLength)
}

func TestConfigManagerFileOverride(t *testing.T) {
	clearConfigEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
mode: remote
database:
  postgres:
    host: db.internal
drive:
  clientId: client-id-1
  pendingAuthTtl: 45s
`)
	require.NoError(t, os.WriteFile(configPath, content, 0644))
	t.Setenv("CONFIG_PATH", configPath)

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	config := cm.GetConfig()

	assert.Equal(t, types.ModeRemote, config.Mode)
	assert.Equal(t, "db.internal", config.Database.Postgres.Host)
	assert.Equal(t, "client-id-1", config.Drive.ClientID)

	// Duration strings decode through the mapstructure hook
	assert.Equal(t, 45*time.Second, config.Drive.PendingAuthTTL)

	// Keys absent from the file keep their defaults
	assert.Equal(t, 5432, config.Database.Postgres.Port)
	assert.Equal(t, 1994, config.Gateway.HTTP.Port)
}

func TestConfigManagerJSONWinsOverFile(t *testing.T) {
	clearConfigEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("mode: remote\n"), 0644))
	t.Setenv("CONFIG_PATH", configPath)
	t.Setenv("CONFIG_JSON", `{"mode":"local"}`)

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	assert.Equal(t, types.ModeLocal, cm.GetConfig().Mode)
}

func TestConfigManagerMissingFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := NewConfigManager[types.AppConfig]()
	assert.Error(t, err)
}
