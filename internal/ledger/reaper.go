package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ReapExpired deletes every token whose expiry has passed.
func (l *Ledger) ReapExpired(ctx context.Context) (int64, error) {
	const op = "ledger.ReapExpired"

	n, err := l.tokens.DeleteExpired(ctx, l.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		l.log.Info("expired tokens reaped", slog.String("op", op), slog.Int64("count", n))
	}
	return n, nil
}

// RunReaper calls ReapExpired every interval until ctx is done.
func (l *Ledger) RunReaper(ctx context.Context, interval time.Duration) {
	const op = "ledger.RunReaper"

	log := l.log.With(slog.String("op", op))
	if interval <= 0 {
		log.Debug("reaper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("reaper started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			log.Info("reaper stopped")
			return
		case <-ticker.C:
			if _, err := l.ReapExpired(ctx); err != nil {
				log.Error("reap failed", slog.String("error", err.Error()))
			}
		}
	}
}
