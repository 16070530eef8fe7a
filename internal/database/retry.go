package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retry limits for backing services that may still be starting when the
// app container launches.
const (
	maxConnectAttempts = 10
	initialBackoff     = time.Second
	maxBackoff         = 30 * time.Second
	pingTimeout        = 5 * time.Second
)

// pingWithRetry calls ping until it succeeds, ctx ends, or the attempts run
// out, doubling the wait each time.
func pingWithRetry(ctx context.Context, name string, ping func(context.Context) error) error {
	backoff := initialBackoff
	var err error

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == maxConnectAttempts {
			break
		}

		slog.Warn(name+" not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxConnectAttempts),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	return fmt.Errorf("pinging %s after %d attempts: %w", name, maxConnectAttempts, err)
}
