package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// ShutdownContext returns a context that is cancelled on SIGINT or SIGTERM so
// the bot can stop polling and drain the chats it has queued. stop releases
// the signal handler and cancels the context.
func ShutdownContext(logger zerolog.Logger) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case sig := <-signals:
			logger.Info().Str("signal", sig.String()).Msg("Stopping partydeck")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
