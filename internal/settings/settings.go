package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"github.com/petr-muller/standup/internal/calendar"
	"github.com/petr-muller/standup/internal/config"
)

const fileName = "settings.yaml"

// Settings holds the persisted report preferences. Values in the settings
// file are overridden by STANDUP_* environment variables, and both are
// overridden by command-line flags.
type Settings struct {
	Timezone string `yaml:"timezone" env:"STANDUP_TIMEZONE"`
	Output   string `yaml:"output" env:"STANDUP_OUTPUT"`
	Delay    string `yaml:"delay" env:"STANDUP_DELAY"`
}

// Default returns the settings used when nothing is configured
func Default() Settings {
	return Settings{
		Timezone: "America/Toronto",
		Output:   "standup.html",
		Delay:    "1s",
	}
}

// DelayDuration parses the configured inter-request delay
func (s Settings) DelayDuration() (time.Duration, error) {
	delay, err := time.ParseDuration(s.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", s.Delay, err)
	}
	if delay < 0 {
		return 0, fmt.Errorf("invalid delay %q: must not be negative", s.Delay)
	}
	return delay, nil
}

func (s Settings) Validate() error {
	if !calendar.ValidTimezone(s.Timezone) {
		return fmt.Errorf("invalid timezone %q", s.Timezone)
	}
	if s.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if _, err := s.DelayDuration(); err != nil {
		return err
	}
	return nil
}

// Load reads the settings file from the standup config directory and applies
// environment overrides. A missing file yields the defaults.
func Load() (Settings, error) {
	return LoadFile(filepath.Join(config.MustStandupConfigDir(), fileName))
}

// LoadFile reads the settings from the given path and applies environment
// overrides. A missing file yields the defaults.
func LoadFile(path string) (Settings, error) {
	loaded := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return loaded, fmt.Errorf("cannot read settings from %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return loaded, fmt.Errorf("cannot parse settings from %s: %w", path, err)
		}
	}

	if err := env.Parse(&loaded); err != nil {
		return loaded, fmt.Errorf("cannot apply environment overrides: %w", err)
	}
	return loaded, nil
}

// Save persists the settings into the standup config directory
func Save(s Settings) error {
	return SaveFile(filepath.Join(config.MustStandupConfigDir(), fileName), s)
}

// SaveFile persists the settings to the given path, creating parent
// directories as needed
func SaveFile(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create settings directory: %w", err)
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("cannot serialize settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write settings to %s: %w", path, err)
	}
	return nil
}
