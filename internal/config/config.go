// Package config loads service configuration from an optional YAML file
// and the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileEnvVar names the YAML file read before the environment.
const FileEnvVar = "TAHISIS_CONFIG"

type Config struct {
	HTTPAddr       string        `yaml:"http_addr" env:"HTTP_ADDR"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL"`
	SettingsDBPath string        `yaml:"settings_db_path" env:"SETTINGS_DB_PATH"`
	ExportDir      string        `yaml:"export_dir" env:"EXPORT_DIR"`
	ExportInterval time.Duration `yaml:"export_interval" env:"EXPORT_INTERVAL"`
	ExportTimeout  time.Duration `yaml:"export_timeout" env:"EXPORT_TIMEOUT"`
	ExportBatch    int           `yaml:"export_batch_size" env:"EXPORT_BATCH_SIZE"`
}

func Defaults() Config {
	return Config{
		HTTPAddr:       ":8081",
		LogLevel:       "info",
		SettingsDBPath: "tahisis-settings.db",
		ExportInterval: 0,
		ExportTimeout:  5 * time.Minute,
		ExportBatch:    1000,
	}
}

// ExportEnabled reports whether the scheduled exporter should run.
func (c Config) ExportEnabled() bool {
	return c.ExportDir != "" && c.ExportInterval > 0
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http address is required")
	}
	if c.ExportInterval < 0 {
		return fmt.Errorf("export interval must not be negative, got %s", c.ExportInterval)
	}
	if c.ExportBatch <= 0 {
		return fmt.Errorf("export batch size must be positive, got %d", c.ExportBatch)
	}
	return nil
}

// Load reads defaults, then the file named by TAHISIS_CONFIG when set, then
// the environment.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv(FileEnvVar)); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes YAML over cfg. Keys absent from the file keep their value.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
