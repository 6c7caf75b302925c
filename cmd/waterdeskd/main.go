// Command waterdeskd runs the console gateway for the water-delivery
// admin console.
//
// Run:
//
//	waterdeskd serve --config waterdesk.yaml
//
// The gateway needs a reachable Redis (session persistence) and the
// delivery-management backend API. Both come from the YAML config or the
// serve flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hydrovia/waterdesk"
	"github.com/hydrovia/waterdesk/internal/server"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "waterdeskd",
		Short: "Console gateway for the water-delivery admin console",
		Long: `waterdeskd terminates browser traffic for the admin console:
it keeps one session per browser in Redis, resolves role capabilities,
guards every view route, and forwards permitted operations to the
delivery-management backend.`,
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gateway version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func serveCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		redisAddr  string
		backendURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := server.DefaultConfig()
			if configPath != "" {
				loaded, err := server.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			applyEnv(&cfg)

			// Flags win over env and file.
			if listen != "" {
				cfg.Listen = listen
			}
			if redisAddr != "" {
				cfg.Redis.Addr = redisAddr
			}
			if backendURL != "" {
				cfg.Backend.BaseURL = backendURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "redis address (overrides config)")
	cmd.Flags().StringVar(&backendURL, "backend-url", "", "backend base URL (overrides config)")

	return cmd
}

// applyEnv layers WATERDESK_* environment variables over the loaded
// config. Flags still win over these.
func applyEnv(cfg *server.Config) {
	if v := os.Getenv("WATERDESK_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("WATERDESK_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WATERDESK_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WATERDESK_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("WATERDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func run(ctx context.Context, cfg server.Config) error {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	consoleCfg := waterdesk.DefaultConfig()
	consoleCfg.Session.RedisPrefix = cfg.Session.RedisPrefix
	consoleCfg.Session.TTL = cfg.Session.TTL.Std()
	consoleCfg.Backend.BaseURL = cfg.Backend.BaseURL
	consoleCfg.Backend.Timeout = cfg.Backend.Timeout.Std()
	consoleCfg.Audit.Enabled = cfg.Audit.Enabled
	consoleCfg.Audit.BufferSize = cfg.Audit.BufferSize
	consoleCfg.Metrics.Enabled = cfg.Metrics.Enabled
	consoleCfg.Metrics.EnableLatencyHistograms = cfg.Metrics.LatencyHistograms

	sink, closeSink, err := auditSink(cfg.Audit)
	if err != nil {
		return err
	}
	defer closeSink()

	console, err := waterdesk.New().
		WithConfig(consoleCfg).
		WithRedis(rdb).
		WithAuditSink(sink).
		Build()
	if err != nil {
		return fmt.Errorf("build console: %w", err)
	}
	defer console.Close()

	if err := console.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("session store unreachable at startup")
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewServer(cfg, console, logger).Run(runCtx)
}

func newLogger(cfg server.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var out = os.Stdout
	logger := zerolog.New(out).With().Timestamp().Str("service", "waterdeskd").Logger().Level(level)
	if cfg.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger, nil
}

// auditSink opens the configured audit destination: a JSONL file, or
// stdout when no path is set.
func auditSink(cfg server.AuditConfig) (waterdesk.AuditSink, func(), error) {
	if !cfg.Enabled {
		return waterdesk.NoOpSink{}, func() {}, nil
	}
	if cfg.Path == "" {
		return waterdesk.NewJSONWriterSink(os.Stdout), func() {}, nil
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return waterdesk.NewJSONWriterSink(f), func() { _ = f.Close() }, nil
}
