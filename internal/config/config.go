package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration. Values come from defaults,
// then the YAML file, then FOCUSFLOW_* environment variables; command-line
// flags are applied on top by the caller.
type Config struct {
	// APIURL is the backend base URL. Empty runs in offline mode against the
	// local database.
	APIURL         string        `yaml:"api_url" env:"FOCUSFLOW_API_URL"`
	DBPath         string        `yaml:"db_path" env:"FOCUSFLOW_DB_PATH"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"FOCUSFLOW_REQUEST_TIMEOUT"`
	TickInterval   time.Duration `yaml:"tick_interval" env:"FOCUSFLOW_TICK_INTERVAL"`
	LogFile        string        `yaml:"log_file" env:"FOCUSFLOW_LOG_FILE"`
	Audio          Audio         `yaml:"audio" envPrefix:"FOCUSFLOW_AUDIO_"`
}

type Audio struct {
	Enabled    bool          `yaml:"enabled" env:"ENABLED"`
	Dir        string        `yaml:"dir" env:"DIR"`
	BGMDir     string        `yaml:"bgm_dir" env:"BGM_DIR"`
	Player     string        `yaml:"player" env:"PLAYER"`
	Volume     float64       `yaml:"volume" env:"VOLUME"`
	BGMVolume  float64       `yaml:"bgm_volume" env:"BGM_VOLUME"`
	FadeWindow time.Duration `yaml:"fade_window" env:"FADE_WINDOW"`
	StopFade   time.Duration `yaml:"stop_fade" env:"STOP_FADE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RequestTimeout: 10 * time.Second,
		TickInterval:   100 * time.Millisecond,
		Audio: Audio{
			Enabled:    true,
			Volume:     0.5,
			BGMVolume:  0.3,
			FadeWindow: 5 * time.Second,
			StopFade:   time.Second,
		},
	}
}

// Load resolves the configuration. A missing file at path is not an error;
// an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.TickInterval <= 0 || c.TickInterval > time.Second {
		return fmt.Errorf("tick_interval must be in (0, 1s], got %v", c.TickInterval)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume must be in [0, 1], got %v", c.Audio.Volume)
	}
	if c.Audio.BGMVolume < 0 || c.Audio.BGMVolume > 1 {
		return fmt.Errorf("audio.bgm_volume must be in [0, 1], got %v", c.Audio.BGMVolume)
	}
	if c.Audio.FadeWindow < 0 || c.Audio.StopFade < 0 {
		return fmt.Errorf("audio fades must not be negative")
	}
	if c.APIURL != "" && !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	return nil
}

// Offline reports whether the client runs against the local database only.
func (c Config) Offline() bool {
	return c.APIURL == ""
}

// DefaultPath returns ~/.config/focusflow/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "focusflow", "config.yaml"), nil
}

// YAML renders the configuration the way it would be written to a file.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}
