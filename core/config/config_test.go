package config

import "testing"

func validConfig() *Config {
	return &Config{
		Bale:    BaleConfig{Token: "12345:token", RunMode: "longpoll"},
		Game:    GameConfig{URL: "https://snake.example.ir"},
		Backend: BackendConfig{BaseURL: "http://app:3001/"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Bale.APIURL != DefaultBaleAPIURL {
		t.Fatalf("api_url default = %q", cfg.Bale.APIURL)
	}
	if cfg.Backend.BaseURL != "http://app:3001" {
		t.Fatalf("base_url not trimmed: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 5 {
		t.Fatalf("timeout default = %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Bale.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Bale.RunMode)
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Bale.Token = "" }},
		{"missing backend url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"missing game url", func(c *Config) { c.Game.URL = "" }},
		{"bad run mode", func(c *Config) { c.Bale.RunMode = "webhook" }},
		{"bad exclude", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"callback"} }},
	}
	for _, tc := range cases {
		cfg := validConfig()
		tc.mutate(cfg)
		if err := Normalize(cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Bale.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Bale.RunMode != RunModeLongpoll {
		t.Fatalf("alias not normalized: %q", cfg.Bale.RunMode)
	}
}

func TestNormalizeExcludeUpdates(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Contact ", "MESSAGE"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != "contact" || cfg.RateLimit.ExcludeUpdates[1] != "message" {
		t.Fatalf("exclusions not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}
}
