package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "90s" or "12h".
type Duration time.Duration

// UnmarshalYAML implements custom unmarshaling so config files can use
// human-readable durations.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the gateway's YAML-loaded configuration. Loaded once at
// startup and treated as immutable.
type Config struct {
	Listen  string        `yaml:"listen"`
	Redis   RedisConfig   `yaml:"redis"`
	Backend BackendConfig `yaml:"backend"`
	Session SessionConfig `yaml:"session"`
	Login   LoginConfig   `yaml:"login"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout Duration      `yaml:"timeout"`
}

type SessionConfig struct {
	RedisPrefix string        `yaml:"redis_prefix"`
	TTL         Duration `yaml:"ttl"`
}

// LoginConfig bounds credential-exchange traffic per client IP.
type LoginConfig struct {
	RatePerMinute int `yaml:"rate_per_minute"`
	Burst         int `yaml:"burst"`
}

type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BufferSize int    `yaml:"buffer_size"`
	// Path receives one JSON event per line. Empty means stdout.
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled           bool `yaml:"enabled"`
	LatencyHistograms bool `yaml:"latency_histograms"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the config the gateway starts from before the
// YAML file is applied.
func DefaultConfig() Config {
	return Config{
		Listen: ":8080",
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Backend: BackendConfig{
			Timeout: Duration(10 * time.Second),
		},
		Session: SessionConfig{
			RedisPrefix: "waterdesk",
			TTL:         Duration(12 * time.Hour),
		},
		Login: LoginConfig{
			RatePerMinute: 10,
			Burst:         5,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled:           true,
			LatencyHistograms: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns
// the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis addr must not be empty")
	}
	if c.Backend.BaseURL == "" {
		return errors.New("backend base_url must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be > 0")
	}
	if c.Login.RatePerMinute <= 0 {
		return errors.New("login rate_per_minute must be > 0")
	}
	if c.Login.Burst <= 0 {
		return errors.New("login burst must be > 0")
	}
	return nil
}
