package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3100", cfg.Addr())
	assert.Equal(t, filepath.Join("./data", "sessions.json"), cfg.SessionFile)
	assert.Equal(t, filepath.Join("./data", "settings.db"), cfg.SettingsFile)
	assert.Empty(t, cfg.SecretHex)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AVB_HOST", "0.0.0.0")
	t.Setenv("AVB_PORT", "8080")
	t.Setenv("AVB_DATA_DIR", "/var/lib/avatarbridge")
	t.Setenv("AVB_SECRET", "aa")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "/var/lib/avatarbridge/sessions.json", cfg.SessionFile)
	assert.Equal(t, "aa", cfg.SecretHex)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("AVB_PORT", "70000")
	_, err := Load()
	assert.Error(t, err)
}

func TestExplicitFilesWin(t *testing.T) {
	t.Setenv("AVB_SESSION_FILE", "/tmp/s.json")
	t.Setenv("AVB_SETTINGS_FILE", "/tmp/s.db")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/s.json", cfg.SessionFile)
	assert.Equal(t, "/tmp/s.db", cfg.SettingsFile)
}
