package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackathon-sync/internal/observability"
)

// GracefulShutdown отменяет context по SIGINT/SIGTERM или по истечении timeout (0: без ограничения).
// Отмена не прерывает текущую карточку, но новые источники не начинаются.
func GracefulShutdown(parent context.Context, logger *observability.Logger, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		outer := cancel
		cancel = func() {
			cancelTimeout()
			outer()
		}
	}

	// Канал для сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
