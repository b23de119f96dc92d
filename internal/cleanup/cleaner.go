package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired state and reports how much it removed
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Cleaner handles periodic cleanup of expired assessment sessions
type Cleaner struct {
	sweeper  Sweeper
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(sweeper Sweeper, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		sweeper:  sweeper,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	removed, err := c.sweeper.Sweep(ctx)
	if err != nil {
		slog.Error("failed to sweep expired sessions", "error", err)
		return
	}

	if removed == 0 {
		slog.Debug("no expired sessions found")
		return
	}

	slog.Info("expired sessions removed", "count", removed)
}
