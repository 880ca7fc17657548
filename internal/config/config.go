// ABOUTME: YAML configuration with .env overlay and validation
// ABOUTME: Defaults reproduce the stock assistant; files and environment override them
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when a live session needs a key and none is set
var ErrMissingAPIKey = errors.New("no API key: set GEMINI_API_KEY or API_KEY, or use a relay")

type Config struct {
	Security  SecurityConfig  `yaml:"security"`
	Models    ModelsConfig    `yaml:"models"`
	Audio     AudioConfig     `yaml:"audio"`
	Relay     RelayConfig     `yaml:"relay"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Devices   []DeviceConfig  `yaml:"devices"`

	// APIKey only ever comes from the environment
	APIKey string `yaml:"-"`
}

type SecurityConfig struct {
	Password  string `yaml:"password"`
	AdminName string `yaml:"admin_name"`

	// MaxAttempts failed unlocks trigger a lockout of LockoutMs. Zero disables it.
	MaxAttempts int `yaml:"max_attempts"`
	LockoutMs   int `yaml:"lockout_ms"`
}

type ModelsConfig struct {
	Live           string `yaml:"live"`
	TTS            string `yaml:"tts"`
	Reason         string `yaml:"reason"`
	Voice          string `yaml:"voice"`
	ThinkingBudget int32  `yaml:"thinking_budget"`
}

type AudioConfig struct {
	Output   string `yaml:"output"`
	Capture  string `yaml:"capture"`
	BufferMs int    `yaml:"buffer_ms"`
	Volume   int    `yaml:"volume"`
}

type RelayConfig struct {
	Addr              string `yaml:"addr"`
	Discover          bool   `yaml:"discover"`
	DiscoverTimeoutMs int    `yaml:"discover_timeout_ms"`
}

type TelemetryConfig struct {
	IntervalMs  int     `yaml:"interval_ms"`
	AlertChance float64 `yaml:"alert_chance"`
	MaxAlerts   int     `yaml:"max_alerts"`
}

type DeviceConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Distance string `yaml:"distance"`
	Status   string `yaml:"status"`
	Powered  bool   `yaml:"powered"`
}

// Default returns the stock configuration
func Default() *Config {
	return &Config{
		Security: SecurityConfig{
			Password:    "ihsan",
			AdminName:   "Iqbal",
			MaxAttempts: 3,
			LockoutMs:   30000,
		},
		Models: ModelsConfig{
			Live:           "gemini-2.5-flash-native-audio-preview-12-2025",
			TTS:            "gemini-2.5-flash-preview-tts",
			Reason:         "gemini-3-pro-preview",
			Voice:          "Charon",
			ThinkingBudget: 24000,
		},
		Audio: AudioConfig{
			Output:   "oto",
			Capture:  "malgo",
			BufferMs: 60,
			Volume:   100,
		},
		Relay: RelayConfig{
			DiscoverTimeoutMs: 3000,
		},
		Telemetry: TelemetryConfig{
			IntervalMs:  1200,
			AlertChance: 0.02,
			MaxAlerts:   3,
		},
		Devices: []DeviceConfig{
			{Name: "ZIM_MOBILE_ALPHA", Type: "Mobile", Distance: "0.2m", Status: "linked", Powered: true},
			{Name: "CITY_SECURITY_NODE_4", Type: "Security", Distance: "1.4m", Status: "unauthorized", Powered: false},
			{Name: "IOT_SMART_HUB_09", Type: "IOT", Distance: "2.1m", Status: "linked", Powered: true},
			{Name: "SATELLITE_UPLINK_PRO", Type: "Link", Distance: "Orbital", Status: "linked", Powered: true},
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return cfg, nil
}

// ApplyEnv loads envFile (if it exists) and copies secrets from the environment
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.APIKey = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		c.APIKey = key
	}
	if pw := os.Getenv("ARGON_PASSWORD"); pw != "" {
		c.Security.Password = pw
	}
	if admin := os.Getenv("ARGON_ADMIN"); admin != "" {
		c.Security.AdminName = admin
	}
	return nil
}

// UsesRelay reports whether audio comes from a relay instead of Gemini
func (c *Config) UsesRelay() bool {
	return c.Relay.Addr != "" || c.Relay.Discover
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.Security.Password == "" {
		return fmt.Errorf("security.password must not be empty")
	}
	if !c.UsesRelay() && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Security.MaxAttempts < 0 || c.Security.LockoutMs < 0 {
		return fmt.Errorf("security.max_attempts and security.lockout_ms must not be negative")
	}
	switch c.Audio.Output {
	case "oto", "malgo":
	default:
		return fmt.Errorf("audio.output must be oto or malgo, got %q", c.Audio.Output)
	}
	switch c.Audio.Capture {
	case "malgo", "portaudio", "none":
	default:
		return fmt.Errorf("audio.capture must be malgo, portaudio or none, got %q", c.Audio.Capture)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("audio.volume must be 0-100, got %d", c.Audio.Volume)
	}
	if c.Telemetry.IntervalMs <= 0 {
		return fmt.Errorf("telemetry.interval_ms must be positive")
	}
	if c.Telemetry.AlertChance < 0 || c.Telemetry.AlertChance > 1 {
		return fmt.Errorf("telemetry.alert_chance must be between 0 and 1")
	}
	return nil
}
