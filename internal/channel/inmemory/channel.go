// Package inmemory is an in-process message channel used by tests and by
// single-process setups. It mirrors Redis Pub/Sub semantics: a published
// payload reaches every subscriber of the topic, the publisher included.
package inmemory

import (
	"context"
	"sync"

	"github.com/soundmesh/device/internal/channel"
)

type Broker struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string][]chan []byte),
	}
}

func (b *Broker) Subscribe(ctx context.Context, topic string) (channel.Subscription, error) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(topic, ch)
	}()

	return &subscription{broker: b, topic: topic, ch: ch}, nil
}

type subscription struct {
	broker *Broker
	topic  string
	ch     chan []byte
}

func (s *subscription) Messages() <-chan []byte {
	return s.ch
}

func (s *subscription) Close() error {
	s.broker.remove(s.topic, s.ch)
	return nil
}

// SubscriberCount reports how many live subscriptions the topic has.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

func (b *Broker) Publisher(topic string) (channel.Publisher, error) {
	return &publisher{broker: b, topic: topic}, nil
}

func (b *Broker) remove(topic string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, sub := range subs {
		if sub == ch {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

type publisher struct {
	broker *Broker
	topic  string
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	p.broker.mu.Lock()
	subs := make([]chan []byte, len(p.broker.subs[p.topic]))
	copy(subs, p.broker.subs[p.topic])
	p.broker.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- payload:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (p *publisher) Close() error {
	return nil
}
