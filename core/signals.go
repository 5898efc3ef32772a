package core

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyInterrupt returns a context cancelled with an *InterruptError cause
// on the first SIGINT, SIGTERM or SIGQUIT. Later signals are only logged:
// teardown runs after cancellation and must not be cut short. Call stop to
// restore default signal handling.
func NotifyInterrupt(parent context.Context, logger Logger) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancelCause(parent)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	done := make(chan struct{})
	go func() {
		interrupted := false
		for {
			select {
			case sig := <-sigChan:
				if interrupted {
					logger.Warningf("Received %v again, cleanup is in progress and will finish first", sig)
					continue
				}
				interrupted = true
				logger.Warningf("Received %v, stopping and releasing resources", sig)
				cancel(&InterruptError{Signal: sig})
			case <-done:
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		close(done)
		cancel(context.Canceled)
	}
}
