package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the agent configuration, loaded from YAML with
// environment variable overrides.
type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"behavior.db"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
	} `yaml:"log"`

	Server struct {
		Enabled bool `yaml:"enabled" env:"SERVER_ENABLED" env-default:"true"`
		Port    int  `yaml:"port" env:"SERVER_PORT" env-default:"8477"`
	} `yaml:"server"`

	Capture struct {
		BatchSize         int `yaml:"batch_size" env:"CAPTURE_BATCH_SIZE" env-default:"10"`
		FlushInterval     int `yaml:"flush_interval" env:"CAPTURE_FLUSH_INTERVAL" env-default:"5"` // seconds
		MaxStoredEvents   int `yaml:"max_stored_events" env:"CAPTURE_MAX_EVENTS" env-default:"1000"`
		MaxStoredSessions int `yaml:"max_stored_sessions" env:"CAPTURE_MAX_SESSIONS" env-default:"100"`
	} `yaml:"capture"`

	Report struct {
		Interval int `yaml:"interval" env:"REPORT_INTERVAL" env-default:"60"` // seconds
	} `yaml:"report"`
}

// LoadConfig reads configuration from the given path, applying
// environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return &cfg, nil
}
