package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, NotifySimulated, cfg.Notifications.Mode)
	assert.Equal(t, time.Second, cfg.Notifications.SimulatedDelay)
	assert.Equal(t, "patient@example.com", cfg.Notifications.DefaultEmail)
	assert.Equal(t, 30, cfg.Clinic.SlotMinutes)
	assert.Equal(t, time.Minute, cfg.Dispatcher.PollInterval)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CLINIC_SERVER_PORT", "7070")
	t.Setenv("CLINIC_STORAGE_MEMORY_LATENCY", "250ms")
	t.Setenv("CLINIC_NOTIFICATIONS_DEFAULT_PHONE", "+15550001111")

	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.Memory.Latency)
	assert.Equal(t, "+15550001111", cfg.Notifications.DefaultPhone)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "storage:\n  backend: sqlite\n"},
		{"remote without url", "storage:\n  backend: remote\n"},
		{"smtp without host", "notifications:\n  mode: smtp\n"},
		{"auth without secret", "auth:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestClinicConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, ClinicConfig{}.Location())
	assert.Equal(t, time.UTC, ClinicConfig{Timezone: "Not/AZone"}.Location())
}
