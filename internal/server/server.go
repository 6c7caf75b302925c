package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hydrovia/waterdesk"
)

// Server is the console gateway: it terminates browser traffic, keeps
// one session per browser scope through the console, and forwards
// permitted operations to the delivery-management backend.
type Server struct {
	cfg     Config
	console *waterdesk.Console
	log     zerolog.Logger
	limiter *loginLimiter
	http    *http.Server
}

// NewServer wires the gateway around an already-built console.
func NewServer(cfg Config, console *waterdesk.Console, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		console: console,
		log:     log,
		limiter: newLoginLimiter(cfg.Login),
	}

	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("listen", s.cfg.Listen).Msg("gateway listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.limiter.Stop()
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("gateway shutting down")
	s.limiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
