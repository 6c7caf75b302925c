package waterdesk

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by waterdesk APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	Session SessionConfig
	Backend BackendConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls how browser sessions are persisted in Redis.
type SessionConfig struct {
	RedisPrefix string
	// TTL bounds how long a persisted session outlives its last write.
	// The backend's own token expiry still applies on top.
	TTL time.Duration
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig points the console at the delivery-management REST API.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "waterdesk",
			TTL:         12 * time.Hour,
		},
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the configuration the Builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

// Validate checks the configuration for values the console cannot run
// with. Called by [Builder.Build].
func (c *Config) Validate() error {
	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}

	// Backend
	if c.Backend.BaseURL == "" {
		return errors.New("Backend BaseURL must not be empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Backend BaseURL must be an absolute URL")
	}
	if c.Backend.Timeout < 0 {
		return errors.New("Backend Timeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}

	return nil
}
