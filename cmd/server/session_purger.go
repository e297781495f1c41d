package main

import (
	"context"
	"log/slog"
	"time"
)

type sessionPurger interface {
	PurgeExpired() error
}

type purgeTicker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

type tickerFactory func(time.Duration) purgeTicker

// runSessionPurger deletes expired sessions every interval until ctx is
// cancelled. Login already purges opportunistically; this keeps the sessions
// table bounded during long idle stretches. Always returns nil so it composes
// with an errgroup.
func runSessionPurger(ctx context.Context, logger *slog.Logger, sessions sessionPurger, interval time.Duration) error {
	return runSessionPurgerWithTicker(ctx, logger, sessions, interval, func(d time.Duration) purgeTicker {
		return timeTicker{ticker: time.NewTicker(d)}
	})
}

func runSessionPurgerWithTicker(
	ctx context.Context,
	logger *slog.Logger,
	sessions sessionPurger,
	interval time.Duration,
	newTicker tickerFactory,
) error {
	if sessions == nil || interval <= 0 {
		return nil
	}
	ticker := newTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if err := sessions.PurgeExpired(); err != nil && logger != nil {
				logger.Error("failed to purge expired sessions", "error", err)
			}
		}
	}
}
