package config

import (
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config should validate cleanly, got %v", ValidationErrors(errs))
	}
}

func TestDefault_ReconnectDisabled(t *testing.T) {
	cfg := Default()
	if cfg.Realtime.Reconnect {
		t.Error("reconnect must default to disabled; close is terminal by design")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty base url", func(c *Config) { c.Backend.BaseURL = "" }, "backend.base_url"},
		{"bad scheme", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, "backend.base_url"},
		{"zero probe timeout", func(c *Config) { c.Backend.ProbeTimeoutMs = 0 }, "backend.probe_timeout_ms"},
		{"zero debounce", func(c *Config) { c.Session.AutosaveDebounceMs = 0 }, "session.autosave_debounce_ms"},
		{"negative question cap", func(c *Config) { c.Quota.MaxQuestions = -1 }, "quota.max_questions"},
		{"zero default count", func(c *Config) { c.Generate.DefaultCount = 0 }, "generate.default_count"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("expected a validation error")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %s, got %v", tt.field, ValidationErrors(errs))
			}
		})
	}
}

func TestBackendConfig_WebSocketURL(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"http://localhost:8000", "ws://localhost:8000/api/v1/ws"},
		{"https://api.example.com", "wss://api.example.com/api/v1/ws"},
		{"https://api.example.com/", "wss://api.example.com/api/v1/ws"},
	}

	for _, tt := range tests {
		cfg := BackendConfig{BaseURL: tt.baseURL}
		if got := cfg.WebSocketURL(); got != tt.want {
			t.Errorf("WebSocketURL(%q) = %q, want %q", tt.baseURL, got, tt.want)
		}
	}
}

func TestValidationErrors_MessageListsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Backend.BaseURL = ""
	cfg.Logging.Level = "nope"

	errs := ValidationErrors(cfg.Validate())
	msg := errs.Error()
	if !strings.Contains(msg, "backend.base_url") || !strings.Contains(msg, "logging.level") {
		t.Errorf("expected both fields in message, got %q", msg)
	}
}
