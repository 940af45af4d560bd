package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewHTTP wraps a handler in an http.Server with sane timeouts.
// longLived skips the read and write timeouts, which would kill open
// websocket connections.
func NewHTTP(addr string, handler http.Handler, longLived bool) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if !longLived {
		srv.ReadTimeout = 10 * time.Second
		srv.WriteTimeout = 10 * time.Second
	}
	return srv
}

// Run serves until the context is cancelled, then shuts down
// gracefully within the timeout.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, l *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		l.Info("shutting down server", zap.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
