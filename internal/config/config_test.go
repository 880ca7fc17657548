// ABOUTME: Tests for configuration loading
// ABOUTME: Verifies defaults, YAML overrides, .env overlay and validation
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Security.Password != "ihsan" || cfg.Security.AdminName != "Iqbal" {
		t.Errorf("unexpected security defaults %+v", cfg.Security)
	}
	if cfg.Security.MaxAttempts != 3 {
		t.Errorf("expected 3 unlock attempts, got %d", cfg.Security.MaxAttempts)
	}
	if cfg.Models.Voice != "Charon" || cfg.Models.ThinkingBudget != 24000 {
		t.Errorf("unexpected model defaults %+v", cfg.Models)
	}
	if len(cfg.Devices) != 4 {
		t.Errorf("expected 4 default devices, got %d", len(cfg.Devices))
	}
	if cfg.Telemetry.IntervalMs != 1200 {
		t.Errorf("expected 1200ms telemetry, got %d", cfg.Telemetry.IntervalMs)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
security:
  admin_name: "Nadia"
models:
  voice: "Puck"
audio:
  output: malgo
  capture: none
relay:
  addr: "127.0.0.1:8928"
devices:
  - name: LAB_NODE
    type: IOT
    distance: 3m
    status: linked
    powered: true
`
	cfgPath := filepath.Join(t.TempDir(), "argon.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Security.AdminName != "Nadia" {
		t.Errorf("expected admin Nadia, got %s", cfg.Security.AdminName)
	}
	if cfg.Security.Password != "ihsan" {
		t.Errorf("expected default password kept, got %s", cfg.Security.Password)
	}
	if cfg.Models.Voice != "Puck" || cfg.Models.TTS != "gemini-2.5-flash-preview-tts" {
		t.Errorf("unexpected models %+v", cfg.Models)
	}
	if cfg.Audio.Output != "malgo" || cfg.Audio.Capture != "none" {
		t.Errorf("unexpected audio %+v", cfg.Audio)
	}
	if len(cfg.Devices) != 1 || cfg.Devices[0].Name != "LAB_NODE" {
		t.Errorf("expected device list replaced, got %+v", cfg.Devices)
	}
	if !cfg.UsesRelay() {
		t.Error("expected relay mode")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("security: [unclosed"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for bad yaml")
	}
}

func TestApplyEnv(t *testing.T) {
	// godotenv never overrides variables that are already set, even empty ones
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "ARGON_PASSWORD", "ARGON_ADMIN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(envFile, []byte("API_KEY=from-file\nARGON_PASSWORD=quantum\n"), 0644)

	cfg := Default()
	if err := cfg.ApplyEnv(envFile); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("expected key from .env, got %q", cfg.APIKey)
	}
	if cfg.Security.Password != "quantum" {
		t.Errorf("expected password from .env, got %q", cfg.Security.Password)
	}

	t.Setenv("GEMINI_API_KEY", "preferred")
	cfg.ApplyEnv("")
	if cfg.APIKey != "preferred" {
		t.Errorf("expected GEMINI_API_KEY to win, got %q", cfg.APIKey)
	}
}

func TestApplyEnv_MissingFileIsFine(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected missing .env to be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		ok      bool
	}{
		{"api key", func(c *Config) { c.APIKey = "k" }, nil, true},
		{"relay without key", func(c *Config) { c.Relay.Addr = "localhost:8928" }, nil, true},
		{"no key no relay", func(c *Config) {}, ErrMissingAPIKey, false},
		{"bad output", func(c *Config) { c.APIKey = "k"; c.Audio.Output = "alsa" }, nil, false},
		{"bad capture", func(c *Config) { c.APIKey = "k"; c.Audio.Capture = "jack" }, nil, false},
		{"bad volume", func(c *Config) { c.APIKey = "k"; c.Audio.Volume = 101 }, nil, false},
		{"empty password", func(c *Config) { c.APIKey = "k"; c.Security.Password = "" }, nil, false},
		{"negative lockout", func(c *Config) { c.APIKey = "k"; c.Security.LockoutMs = -1 }, nil, false},
		{"bad alert chance", func(c *Config) { c.APIKey = "k"; c.Telemetry.AlertChance = 2 }, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
