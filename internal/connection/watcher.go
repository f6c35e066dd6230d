package connection

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Watcher pings the transport backend and emits a Connected event whenever
// it transitions from unreachable to reachable, including the first
// successful ping after startup. This gives the orchestrator its reconnect
// signal without the transport layer knowing anything about playback.
type Watcher struct {
	rc       *redis.Client
	username string
	interval time.Duration
	logger   *slog.Logger
	ch       chan Event
}

func NewWatcher(rc *redis.Client, username string, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		rc:       rc,
		username: username,
		interval: interval,
		logger:   logger,
		ch:       make(chan Event, 1),
	}
}

func (w *Watcher) Events() <-chan Event {
	return w.ch
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	connected := false
	for {
		err := w.rc.Ping(ctx).Err()
		switch {
		case err == nil && !connected:
			connected = true
			w.logger.InfoContext(ctx, "transport connected", "username", w.username)
			select {
			case w.ch <- Event{Username: w.username}:
			default:
			}
		case err != nil && connected:
			connected = false
			w.logger.WarnContext(ctx, "transport lost", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
