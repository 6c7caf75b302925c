package waterdesk

import (
	"errors"
	"net/http"

	"github.com/hydrovia/waterdesk/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Console]. Configure it with the With* methods and
// call [Builder.Build] once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	http   *http.Client

	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the session store. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackendURL sets the base URL of the delivery-management API.
func (b *Builder) WithBackendURL(baseURL string) *Builder {
	b.config.Backend.BaseURL = baseURL
	return b
}

// WithHTTPClient replaces the HTTP client used for backend calls. The
// default applies Config.Backend.Timeout.
func (b *Builder) WithHTTPClient(h *http.Client) *Builder {
	b.http = h
	return b
}

// WithAuditSink sets the destination for audit events. Without one,
// enabled auditing discards events into a [NoOpSink].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Console. The
// builder is single-use.
func (b *Builder) Build() (*Console, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := b.http
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Backend.Timeout}
	}

	c := &Console{
		config:   cfg,
		store:    session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.TTL),
		http:     httpClient,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		managers: map[string]*Manager{},
	}

	b.built = true

	return c, nil
}
