package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker.Backend != "paper" {
		t.Errorf("backend = %q, want paper", cfg.Broker.Backend)
	}
	if cfg.Strategy.RSIUpper != 70 || cfg.Strategy.RSILower != 30 {
		t.Errorf("rsi thresholds = %.0f/%.0f, want 70/30", cfg.Strategy.RSIUpper, cfg.Strategy.RSILower)
	}
	if len(cfg.Strategy.CashSymbols) == 0 {
		t.Error("cash symbols default is empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
broker:
  backend: alpaca
  key_id: from-file
  secret_key: s1
strategy:
  rsi_upper: 75
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APCA_API_KEY_ID", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker.KeyID != "from-env" {
		t.Errorf("key id = %q, env must override the file", cfg.Broker.KeyID)
	}
	if cfg.Strategy.RSIUpper != 75 {
		t.Errorf("rsi upper = %.0f, want 75 from file", cfg.Strategy.RSIUpper)
	}
	if cfg.Strategy.RSILower != 30 {
		t.Errorf("rsi lower = %.0f, want default 30", cfg.Strategy.RSILower)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"alpaca without keys", func(c *Config) { c.Broker.Backend = "alpaca" }, true},
		{"unknown backend", func(c *Config) { c.Broker.Backend = "ibkr" }, true},
		{"telegram token without chat", func(c *Config) { c.Telegram.BotToken = "t" }, true},
		{"inverted rsi thresholds", func(c *Config) { c.Strategy.RSIUpper = 20 }, true},
		{"paper defaults", func(c *Config) {}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
