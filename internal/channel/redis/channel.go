package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/soundmesh/device/internal/channel"
)

// Channel is a message-channel provider over Redis Pub/Sub. Every device of
// a user subscribes and publishes on the same topic, so Redis does the
// fan-out.
type Channel struct {
	rc     *redis.Client
	logger *slog.Logger
}

func NewChannel(rc *redis.Client, logger *slog.Logger) *Channel {
	return &Channel{
		rc:     rc,
		logger: logger,
	}
}

func (c *Channel) Subscribe(ctx context.Context, topic string) (channel.Subscription, error) {
	ps := c.rc.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %q: %w", topic, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []byte)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.WarnContext(ctx, "subscription closed", "topic", topic)
					return
				}

				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &subscription{ps: ps, out: out, cancel: cancel}, nil
}

type subscription struct {
	ps     *redis.PubSub
	out    chan []byte
	cancel context.CancelFunc
}

func (s *subscription) Messages() <-chan []byte {
	return s.out
}

// Close unsubscribes from the topic and stops the pump goroutine.
func (s *subscription) Close() error {
	s.cancel()
	return s.ps.Close()
}

func (c *Channel) Publisher(topic string) (channel.Publisher, error) {
	return &publisher{rc: c.rc, topic: topic}, nil
}

type publisher struct {
	rc    *redis.Client
	topic string
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.rc.Publish(ctx, p.topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to %q: %w", p.topic, err)
	}

	return nil
}

func (p *publisher) Close() error {
	return nil
}
