package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// App is the process-level configuration loaded once at startup. The mutable
// trading switches (kill switch, blackout dates) live in Store, not here.
type App struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Broker   BrokerConfig   `json:"broker" yaml:"broker"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	AuthToken string `json:"auth_token" yaml:"auth_token"`
}

type DataConfig struct {
	// Dir holds the logbook directories (orders/, errors/, summary/) and
	// the mutable trading config file.
	Dir string `json:"dir" yaml:"dir"`
}

type BrokerConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	ClientID     string `json:"client_id" yaml:"client_id"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
	AccountID    string `json:"account_id" yaml:"account_id"`
}

type TelegramConfig struct {
	BotToken string `json:"bot_token" yaml:"bot_token"`
	ChatID   string `json:"chat_id" yaml:"chat_id"`
}

type ScheduleConfig struct {
	// CloseOut enables the 15:50 New York weekday close-out job.
	CloseOut bool `json:"close_out" yaml:"close_out"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *App) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for required fields.
func (c *App) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Broker.BaseURL == "" {
		return fmt.Errorf("broker.base_url is required")
	}
	if !strings.HasPrefix(c.Broker.BaseURL, "http") {
		return fmt.Errorf("broker.base_url must be an http(s) URL")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}

// Default returns a configuration with sensible defaults. Broker credentials
// intentionally have no default.
func Default() *App {
	return &App{
		Server: ServerConfig{
			Addr: ":8000",
		},
		Data: DataConfig{
			Dir: "./db",
		},
		Broker: BrokerConfig{
			BaseURL: "https://api.tdameritrade.com",
		},
		Schedule: ScheduleConfig{
			CloseOut: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
