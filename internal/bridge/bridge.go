// ABOUTME: HTTP server wiring for the authbridge endpoints
// ABOUTME: Stateless per request; shares only the read-only config across requests

package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/2389/authbridge/internal/config"
	"github.com/2389/authbridge/internal/identity"
)

// Bridge owns the HTTP surface: the session-cookie issuer, the protected
// resource guard, and health endpoints. Handlers keep no state between
// requests; any number of them may run concurrently without coordination.
type Bridge struct {
	cfg     *config.Config
	backend identity.Backend
	logger  *slog.Logger

	httpServer *http.Server
}

// New creates a bridge over the given backend. Pass nil logger for default.
func New(cfg *config.Config, backend identity.Backend, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		cfg:     cfg,
		backend: backend,
		logger:  logger.With("component", "bridge"),
	}
}

// Routes builds the request mux. Exposed separately from Start so tests can
// exercise the full middleware chain through httptest.
func (b *Bridge) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/set-session", b.handleSetSession)
	mux.Handle("/protected", b.bearerGuard(http.HandlerFunc(b.handleProtected)))
	mux.HandleFunc("/health", b.handleHealth)
	mux.HandleFunc("/health/ready", b.handleReady)

	return b.recoverer(mux)
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully. Returns nil on clean shutdown.
func (b *Bridge) Start(ctx context.Context) error {
	b.httpServer = &http.Server{
		Addr:    b.cfg.Server.HTTPAddr,
		Handler: b.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("http server listening", "addr", b.cfg.Server.HTTPAddr)
		errCh <- b.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx := context.Background()
		if err := b.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
