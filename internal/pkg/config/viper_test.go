package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: levelup
  debug: true
realtime:
  send_buffer: 64
  ping_seconds: 54
  write_wait_millis: 250
  refresh_minutes: 5
  origins: "http://a.test, http://b.test,"
  channels: [ "x", " y " ]
  weights: "trophy:warning,zap:primary"
  secret: "aGVsbG8="
`

func TestNewViperFromBytes(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	// Act & Assert
	assert.Equal(t, "levelup", cfg.GetString("app.name"))
	assert.True(t, cfg.GetBool("app.debug"))
	assert.Equal(t, 64, cfg.GetInt("realtime.send_buffer"))
	assert.Equal(t, 54*time.Second, cfg.GetSecond("realtime.ping_seconds"))
	assert.Equal(t, 250*time.Millisecond, cfg.GetMillisecond("realtime.write_wait_millis"))
	assert.Equal(t, 5*time.Minute, cfg.GetMinute("realtime.refresh_minutes"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("realtime.origins"))
	assert.Equal(t, []string{"x", "y"}, cfg.GetArray("realtime.channels"))
	assert.Empty(t, cfg.GetArray("realtime.missing"))
	assert.Equal(t, map[string]string{"trophy": "warning", "zap": "primary"}, cfg.GetMap("realtime.weights"))
	assert.Equal(t, []byte("hello"), cfg.GetBinary("realtime.secret"))
	assert.NoError(t, cfg.Close())
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sample))

	assert.ErrorIs(t, err, ErrConfigType)
}

func TestViper_EnvAndSetOverride(t *testing.T) {
	t.Setenv("LEVELUP_APP_NAME", "from-env")
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString("app.name"))

	cfg.Set("app.name", "from-flag")
	assert.Equal(t, "from-flag", cfg.GetString("app.name"))
}

func TestNewViper_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))

	cfg, err := NewViper(file)

	require.NoError(t, err)
	assert.Equal(t, 64, cfg.GetInt("realtime.send_buffer"))
}
