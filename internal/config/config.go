package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Audio and haptic device kinds.
const (
	DeviceNone    = "none"
	DeviceCommand = "command"
	DeviceBell    = "bell"
)

// EnvPrefix prefixes generic overrides; "__" separates nesting levels,
// e.g. GROCERY_REMINDER__POLL_INTERVAL=2s.
const EnvPrefix = "GROCERY_"

// Config keeps runtime settings for the bot and the MCP server.
type Config struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Storage  StorageConfig  `koanf:"storage"`
	Reminder ReminderConfig `koanf:"reminder"`
	Audio    AudioConfig    `koanf:"audio"`
	Haptic   HapticConfig   `koanf:"haptic"`
	Report   ReportConfig   `koanf:"report"`
	Log      LogConfig      `koanf:"log"`
}

type TelegramConfig struct {
	Token   string `koanf:"token"`
	OwnerID int64  `koanf:"owner_id"` // 0 means the first account to /start becomes the owner
}

type StorageConfig struct {
	Backend     string `koanf:"backend"`
	DatabaseURL string `koanf:"database_url"`
	Dir         string `koanf:"dir"` // file backend
	Key         string `koanf:"key"`
}

type ReminderConfig struct {
	PollInterval  time.Duration `koanf:"poll_interval"`
	PulseInterval time.Duration `koanf:"pulse_interval"`
}

type AudioConfig struct {
	Device     string   `koanf:"device"`
	Command    []string `koanf:"command"`
	SampleRate int      `koanf:"sample_rate"`
}

type HapticConfig struct {
	Device string `koanf:"device"`
}

type ReportConfig struct {
	Interval time.Duration `koanf:"interval"`
	DailyAt  string        `koanf:"daily_at"` // HH:MM, empty disables
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// Load layers defaults, the optional YAML file, GROCERY_* variables and the
// legacy TELEGRAM_TOKEN / DATABASE_URL / REPORT_INTERVAL_HOURS variables.
// A .env file in the working directory is read first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if token := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); token != "" {
		k.Set("telegram.token", token)
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		k.Set("storage.database_url", dsn)
	}
	if interval := parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))); interval > 0 {
		k.Set("report.interval", interval.String())
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for the sqlite backend")
		}
	case BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s (supported: %s, %s)", c.Storage.Backend, BackendSQLite, BackendFile)
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key must not be empty")
	}

	if c.Reminder.PollInterval < time.Second {
		return fmt.Errorf("reminder.poll_interval must be at least 1s")
	}
	if c.Reminder.PulseInterval < time.Second {
		return fmt.Errorf("reminder.pulse_interval must be at least 1s")
	}

	switch c.Audio.Device {
	case DeviceNone:
	case DeviceCommand:
		if len(c.Audio.Command) == 0 {
			return fmt.Errorf("audio.command is required for the command device")
		}
	default:
		return fmt.Errorf("unknown audio device: %s", c.Audio.Device)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}

	if c.Haptic.Device != DeviceNone && c.Haptic.Device != DeviceBell {
		return fmt.Errorf("unknown haptic device: %s", c.Haptic.Device)
	}

	if c.Report.Interval < 0 {
		return fmt.Errorf("report.interval must not be negative")
	}
	if c.Report.DailyAt != "" {
		if _, err := time.Parse("15:04", c.Report.DailyAt); err != nil {
			return fmt.Errorf("report.daily_at must be HH:MM: %w", err)
		}
	}

	return nil
}

// RequireTelegram checks the settings only the bot binary needs.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0
	}
	return time.Duration(hours) * time.Hour
}
