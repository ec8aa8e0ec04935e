package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all viewer configuration.
type Config struct {
	Desktop   DesktopConfig   `yaml:"desktop" toml:"desktop"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Viewport  ViewportConfig  `yaml:"viewport" toml:"viewport"`
	Commands  CommandConfig   `yaml:"commands" toml:"commands"`
	Inspect   InspectConfig   `yaml:"inspect" toml:"inspect"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
}

// DesktopConfig names the server and the desktop to mirror.
type DesktopConfig struct {
	URL     string `envconfig:"DESKTOP_URL" yaml:"url" toml:"url"`
	ID      string `envconfig:"DESKTOP_ID" yaml:"id" toml:"id"`
	APIBase string `envconfig:"API_BASE" yaml:"api_base" toml:"api_base"`
}

// TransportConfig holds persistent connection settings.
type TransportConfig struct {
	ReconnectBase    Duration `envconfig:"RECONNECT_BASE" yaml:"reconnect_base" toml:"reconnect_base"`
	ReconnectMax     Duration `envconfig:"RECONNECT_MAX" yaml:"reconnect_max" toml:"reconnect_max"`
	PingInterval     Duration `envconfig:"PING_INTERVAL" yaml:"ping_interval" toml:"ping_interval"`
	HandshakeTimeout Duration `envconfig:"HANDSHAKE_TIMEOUT" yaml:"handshake_timeout" toml:"handshake_timeout"`
	WriteTimeout     Duration `envconfig:"WRITE_TIMEOUT" yaml:"write_timeout" toml:"write_timeout"`
}

// ViewportConfig is the drawable area windows are clamped to.
type ViewportConfig struct {
	Width  int `envconfig:"VIEWPORT_WIDTH" yaml:"width" toml:"width"`
	Height int `envconfig:"VIEWPORT_HEIGHT" yaml:"height" toml:"height"`
}

// CommandConfig holds desktop API client settings.
type CommandConfig struct {
	Timeout Duration `envconfig:"COMMAND_TIMEOUT" yaml:"timeout" toml:"timeout"`
	Retries int      `envconfig:"COMMAND_RETRIES" yaml:"retries" toml:"retries"`
	RPS     float64  `envconfig:"COMMAND_RPS" yaml:"rps" toml:"rps"`
	Burst   int      `envconfig:"COMMAND_BURST" yaml:"burst" toml:"burst"`
}

// InspectConfig holds the local inspection server settings.
type InspectConfig struct {
	Enabled    bool   `envconfig:"INSPECT_ENABLED" yaml:"enabled" toml:"enabled"`
	ListenAddr string `envconfig:"LISTEN_ADDR" yaml:"listen_addr" toml:"listen_addr"`
	RPS        int    `envconfig:"INSPECT_RPS" yaml:"rps" toml:"rps"`
	Burst      int    `envconfig:"INSPECT_BURST" yaml:"burst" toml:"burst"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
	Output      string `envconfig:"LOG_OUTPUT" yaml:"output" toml:"output"`
}

// Load loads configuration from environment variables on top of Default.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadFile loads a YAML or TOML file on top of Default, then applies
// environment variables, which win over file values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Desktop: DesktopConfig{
			URL:     "ws://localhost:8080/ws",
			ID:      "default",
			APIBase: "http://localhost:8080",
		},
		Transport: TransportConfig{
			ReconnectBase:    Duration(500 * time.Millisecond),
			ReconnectMax:     Duration(5 * time.Second),
			PingInterval:     Duration(30 * time.Second),
			HandshakeTimeout: Duration(10 * time.Second),
			WriteTimeout:     Duration(10 * time.Second),
		},
		Viewport: ViewportConfig{
			Width:  1440,
			Height: 900,
		},
		Commands: CommandConfig{
			Timeout: Duration(10 * time.Second),
			Retries: 2,
			RPS:     20,
			Burst:   40,
		},
		Inspect: InspectConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1:9090",
			RPS:        50,
			Burst:      100,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			Output:      "stderr",
		},
	}
}

// Validate reports every setting the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Desktop.ID == "" {
		errs = append(errs, errors.New("desktop id must not be empty"))
	}
	if c.Transport.ReconnectBase <= 0 {
		errs = append(errs, errors.New("reconnect base must be positive"))
	}
	if c.Transport.ReconnectMax <= 0 {
		errs = append(errs, errors.New("reconnect max must be positive"))
	}
	if c.Transport.ReconnectMax < c.Transport.ReconnectBase {
		errs = append(errs, errors.New("reconnect max must not be below reconnect base"))
	}
	if c.Transport.PingInterval < 0 {
		errs = append(errs, errors.New("ping interval must not be negative"))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport %dx%d must be positive", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Commands.Retries < 0 {
		errs = append(errs, errors.New("command retries must not be negative"))
	}
	if c.Commands.RPS <= 0 || c.Commands.Burst <= 0 {
		errs = append(errs, errors.New("command rate limit must be positive"))
	}
	if c.Inspect.Enabled && c.Inspect.ListenAddr == "" {
		errs = append(errs, errors.New("listen address required when inspection is enabled"))
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration that reads "500ms" style text from env
// variables, YAML and TOML alike.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
