// Package channel defines the publish/subscribe contract the orchestrator
// synchronizes over. Implementations deliver every published payload to
// every subscriber of the topic, including the publisher's own
// subscription; filtering out self-sent messages is the consumer's job.
package channel

import "context"

type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Close() error
}

// Subscription is a live handle on a topic. Close releases the underlying
// channel resources; a consumer replacing its subscription must close the
// old one or the backend keeps delivering to it.
type Subscription interface {
	// Messages delivers raw payloads. The stream is closed when the
	// subscription terminates; a closed stream is a transport failure from
	// the consumer's point of view.
	Messages() <-chan []byte
	Close() error
}

type Provider interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Publisher(topic string) (Publisher, error)
}
