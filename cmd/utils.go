package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
)

// handleSignals calls graceful on the first SIGINT/SIGTERM and cancel on the
// second one, or when ctx is done first.
func handleSignals(ctx context.Context, graceful func(), cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		return
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Closing session, signal again to force exit")
		graceful()
	}

	select {
	case <-ctx.Done():
	case <-sigChan:
		logger.Warnf("Forcing exit")
		cancel()
	}
}
