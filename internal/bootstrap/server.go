package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/skyclient/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Run serves handler on address and blocks until ctx is canceled or the
// server fails. Cancellation triggers a graceful shutdown.
func Run(ctx context.Context, address string, handler http.Handler, log logger.Logger) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", address, err)
	}
	return Serve(ctx, lis, handler, log)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, lis net.Listener, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()
	log.Info("http server listening", map[string]interface{}{"address": lis.Addr().String()})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("http server stopped", nil)
		return nil
	}
}
