package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"fitbridge/pkg/logging"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish.
const ShutdownTimeout = 30 * time.Second

// notify is replaced in tests.
var notify = daemon.SdNotify

// runServer runs the HTTP server until ctx is done or a signal arrives.
//
// Signal Handling:
//   - SIGINT (Ctrl+C): Triggers graceful shutdown
//   - SIGTERM: Triggers graceful shutdown (common in container environments)
//
// Under systemd (Type=notify) READY=1 is sent once the socket is bound and
// STOPPING=1 when shutdown begins. Outside systemd the notifications are
// no-ops.
func runServer(ctx context.Context, a *Application) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := a.services.Server
	ln, err := srv.Listen()
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to start listener")
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(ln)
	})

	a.markReady(ln.Addr())
	sdNotify(daemon.SdNotifyReady)
	logging.Info("Bootstrap", "fitbridge is ready on %s", ln.Addr())

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Bootstrap", "Shutting down")
		sdNotify(daemon.SdNotifyStopping)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Error("Bootstrap", err, "Server stopped with error")
		return err
	}
	logging.Info("Bootstrap", "Server stopped")
	return nil
}

func sdNotify(state string) {
	sent, err := notify(false, state)
	switch {
	case err != nil:
		logging.Warn("Bootstrap", "Failed to notify systemd (%s): %v", state, err)
	case sent:
		logging.Debug("Bootstrap", "Notified systemd: %s", state)
	}
}
