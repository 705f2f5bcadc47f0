package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"telegram": map[string]interface{}{
			"token":    "",
			"owner_id": 0,
		},
		"storage": map[string]interface{}{
			"backend":      BackendSQLite,
			"database_url": "data/smart_grocery.db",
			"dir":          "data",
			"key":          "smart_grocery_budget_data",
		},
		"reminder": map[string]interface{}{
			"poll_interval":  "1s",
			"pulse_interval": "3s",
		},
		"audio": map[string]interface{}{
			"device":      DeviceCommand,
			"command":     []string{"aplay", "-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", "44100", "-"},
			"sample_rate": 44100,
		},
		"haptic": map[string]interface{}{
			"device": DeviceNone,
		},
		"report": map[string]interface{}{
			"interval": "0s",
			"daily_at": "",
		},
		"log": map[string]interface{}{
			"level":       "info",
			"development": false,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "smartgrocery.yaml"
}
