package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "smart_grocery_budget_data", cfg.Storage.Key)
	assert.Equal(t, time.Second, cfg.Reminder.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Reminder.PulseInterval)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.NotEmpty(t, cfg.Audio.Command)
	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.RequireTelegram())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartgrocery.yaml")
	yaml := "storage:\n  backend: file\n  dir: /tmp/grocery\nreminder:\n  pulse_interval: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("GROCERY_HAPTIC__DEVICE", "bell")
	t.Setenv("GROCERY_TELEGRAM__OWNER_ID", "42")
	t.Setenv("TELEGRAM_TOKEN", "secret")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/grocery", cfg.Storage.Dir)
	assert.Equal(t, 5*time.Second, cfg.Reminder.PulseInterval)
	assert.Equal(t, DeviceBell, cfg.Haptic.Device)
	assert.Equal(t, int64(42), cfg.Telegram.OwnerID)
	assert.Equal(t, "secret", cfg.Telegram.Token)
	assert.Equal(t, 6*time.Hour, cfg.Report.Interval)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.RequireTelegram())
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"unknown backend":  func(c *Config) { c.Storage.Backend = "redis" },
		"empty key":        func(c *Config) { c.Storage.Key = "" },
		"fast poll":        func(c *Config) { c.Reminder.PollInterval = 100 * time.Millisecond },
		"unknown audio":    func(c *Config) { c.Audio.Device = "midi" },
		"empty command":    func(c *Config) { c.Audio.Command = nil },
		"unknown haptic":   func(c *Config) { c.Haptic.Device = "motor" },
		"bad daily report": func(c *Config) { c.Report.DailyAt = "25:99" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := *base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
