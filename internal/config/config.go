// Package config loads the bot configuration from YAML, with strict key
// checking and Go duration strings for every interval.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Poll     PollConfig     `yaml:"poll"`
}

type TelegramConfig struct {
	Token       string   `yaml:"token"`
	PollTimeout Duration `yaml:"poll_timeout"`
}

type CatalogConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Console bool        `yaml:"console"`
	File    LoggingFile `yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type StorageConfig struct {
	Path        string   `yaml:"path"`
	BusyTimeout Duration `yaml:"busy_timeout"`
}

type PollConfig struct {
	NewDealsInterval    Duration `yaml:"new_deals_interval"`
	PriceAlertsInterval Duration `yaml:"price_alerts_interval"`
	RetentionSweepAt    string   `yaml:"retention_sweep_at"` // HH:MM local
	RetentionDays       int      `yaml:"retention_days"`
	PageSize            int      `yaml:"page_size"`
	SendRatePerSec      int      `yaml:"send_rate_per_sec"`
}

// Duration is a yaml-friendly time.Duration ("300s", "5m", "24h").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and validates the config file. The Telegram token may also come
// from the TELEGRAM_BOT_TOKEN environment variable, which wins over the file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if tok := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); tok != "" {
		cfg.Telegram.Token = tok
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML strictly: unknown keys are an error so typos surface
// immediately instead of silently using defaults.
func Parse(b []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults mirror the original deployment's settings.
func Defaults() Config {
	return Config{
		Telegram: TelegramConfig{PollTimeout: Duration(10 * time.Second)},
		Catalog: CatalogConfig{
			BaseURL: "http://localhost:8080",
			Timeout: Duration(15 * time.Second),
		},
		Logging: LoggingConfig{Level: "info", Console: true},
		Storage: StorageConfig{
			Path:        "./bot_data.db",
			BusyTimeout: Duration(5 * time.Second),
		},
		Poll: PollConfig{
			NewDealsInterval:    Duration(300 * time.Second),
			PriceAlertsInterval: Duration(600 * time.Second),
			RetentionSweepAt:    "03:30",
			RetentionDays:       30,
			PageSize:            5,
			SendRatePerSec:      20,
		},
	}
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required (or set TELEGRAM_BOT_TOKEN)")
	}
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		return errors.New("catalog.base_url is required")
	}
	if c.Poll.NewDealsInterval <= 0 || c.Poll.PriceAlertsInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if c.Poll.RetentionDays <= 0 {
		return errors.New("poll.retention_days must be positive")
	}
	return nil
}
