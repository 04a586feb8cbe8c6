package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Broker struct {
		Backend   string `yaml:"backend"` // "paper" or "alpaca"
		BaseURL   string `yaml:"base_url"`
		KeyID     string `yaml:"key_id"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"broker"`
	Strategy struct {
		RSIUpper    float64  `yaml:"rsi_upper"`
		RSILower    float64  `yaml:"rsi_lower"`
		CashSymbols []string `yaml:"cash_symbols"`
	} `yaml:"strategy"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	State struct {
		WatchlistFile string `yaml:"watchlist_file"`
		AutoPilotFile string `yaml:"autopilot_file"`
	} `yaml:"state"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"` // empty disables the endpoint
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BROKER_BACKEND"); v != "" {
		cfg.Broker.Backend = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Broker.KeyID = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Broker.SecretKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Broker.Backend == "" {
		cfg.Broker.Backend = "paper"
	}
	if cfg.Strategy.RSIUpper == 0 {
		cfg.Strategy.RSIUpper = 70
	}
	if cfg.Strategy.RSILower == 0 {
		cfg.Strategy.RSILower = 30
	}
	if len(cfg.Strategy.CashSymbols) == 0 {
		cfg.Strategy.CashSymbols = []string{"SGOV", "SHV", "BIL", "USFR"}
	}
	if cfg.Schedule.ScanCron == "" {
		// Weekdays at 16:30, after the US close.
		cfg.Schedule.ScanCron = "0 30 16 * * 1-5"
	}
	if cfg.State.WatchlistFile == "" {
		cfg.State.WatchlistFile = "data/watchlist.json"
	}
	if cfg.State.AutoPilotFile == "" {
		cfg.State.AutoPilotFile = "data/autopilot_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/optionpilot.db"
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent. Telegram is optional;
// live broker credentials are required only for the alpaca backend.
func (c *Config) Validate() error {
	switch c.Broker.Backend {
	case "paper":
	case "alpaca":
		if c.Broker.KeyID == "" || c.Broker.SecretKey == "" {
			return fmt.Errorf("broker.key_id and broker.secret_key are required for the alpaca backend")
		}
	default:
		return fmt.Errorf("broker.backend must be \"paper\" or \"alpaca\", got %q", c.Broker.Backend)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Strategy.RSIUpper <= c.Strategy.RSILower {
		return fmt.Errorf("strategy.rsi_upper (%.0f) must exceed strategy.rsi_lower (%.0f)",
			c.Strategy.RSIUpper, c.Strategy.RSILower)
	}
	return nil
}
