package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// serveUntilCancelled runs handler on addr until ctx is cancelled
// (typically by an interrupt or SIGTERM), then shuts it down with a
// 10s grace period for in-flight requests to finish.
func serveUntilCancelled(ctx context.Context, addr string, handler http.Handler, log *zerolog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if log != nil {
		log.Info().Msg("shutting down strategyci service")
	}
	return srv.Shutdown(shutdownCtx)
}
