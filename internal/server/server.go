// Package server provides shared HTTP server utilities.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default server timeouts.
const (
	ReadHeaderTimeout = 1 * time.Second
	ReadTimeout       = 5 * time.Second
	WriteTimeout      = 5 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// Timeouts bound the phases of a request and of shutdown.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Shutdown   time.Duration
}

// DefaultTimeouts returns the standard timeouts, with the write timeout
// extended so a response can still be written once a render of up to
// renderTimeout has finished or been abandoned.
func DefaultTimeouts(renderTimeout time.Duration) Timeouts {
	return Timeouts{
		ReadHeader: ReadHeaderTimeout,
		Read:       ReadTimeout,
		Write:      max(WriteTimeout, renderTimeout+WriteTimeout),
		Shutdown:   ShutdownTimeout,
	}
}

// Listen creates a TCP listener on the given address.
// Use "127.0.0.1:0" for a random available port.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}

// Serve starts an HTTP server on the given listener and registers graceful
// shutdown when the context is canceled.
func Serve(
	ctx context.Context,
	grp *errgroup.Group,
	srv *http.Server,
	listener net.Listener,
	timeouts Timeouts,
) {
	srv.ReadHeaderTimeout = timeouts.ReadHeader
	srv.ReadTimeout = timeouts.Read
	srv.WriteTimeout = timeouts.Write

	grp.Go(func() error {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	grp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
