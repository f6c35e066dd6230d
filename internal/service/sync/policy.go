package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundmesh/device/internal/channel"
)

// SendPolicy decides the fate of an outbound payload the publisher rejects.
// A non-nil error from Send is treated as fatal by the run loop, so
// policies that want the orchestrator to survive publish failures must
// absorb them.
type SendPolicy interface {
	Send(ctx context.Context, pub channel.Publisher, payload []byte) error
}

// DropPolicy publishes once and drops the payload with a warning on
// failure. Peers reconcile from the next notify.
type DropPolicy struct {
	Logger *slog.Logger
}

func (p DropPolicy) Send(ctx context.Context, pub channel.Publisher, payload []byte) error {
	if err := pub.Publish(ctx, payload); err != nil {
		p.Logger.WarnContext(ctx, "publish failed, dropping frame", "error", err)
	}

	return nil
}

// RetryPolicy retries a failed publish a bounded number of times with a
// fixed backoff, then drops with a warning.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Logger   *slog.Logger
}

func (p RetryPolicy) Send(ctx context.Context, pub channel.Publisher, payload []byte) error {
	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if err = pub.Publish(ctx, payload); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff):
		}
	}

	p.Logger.WarnContext(ctx, "publish failed, dropping frame",
		"attempts", p.Attempts,
		"error", err,
	)

	return nil
}
