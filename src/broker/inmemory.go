package broker

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to a closed broker.
var ErrClosed = errors.New("broker is closed")

// DefaultHistory is how many recent messages per topic InMemoryBroker keeps.
const DefaultHistory = 100

// Handler receives messages delivered in process.
type Handler func(Message)

// Subscriber is implemented by brokers that deliver messages in process.
type Subscriber interface {
	// Subscribe registers handler for topic and returns a function that removes it.
	Subscribe(topic string, handler Handler) (unsubscribe func())
}

type subscription struct {
	id      int
	handler Handler
}

// InMemoryBroker hands each message to the topic's subscribers and keeps a
// bounded history of recent messages. Messages with no subscriber are only
// kept in the history. It is the default when no Redpanda brokers are configured.
type InMemoryBroker struct {
	mu       sync.Mutex
	handlers map[string][]subscription
	history  map[string][]Message
	limit    int
	nextID   int
	closed   bool
}

// NewInMemoryBroker creates a broker keeping DefaultHistory messages per topic.
func NewInMemoryBroker() *InMemoryBroker {
	return NewInMemoryBrokerWithHistory(DefaultHistory)
}

// NewInMemoryBrokerWithHistory creates a broker keeping at most limit recent
// messages per topic. A limit of 0 keeps none.
func NewInMemoryBrokerWithHistory(limit int) *InMemoryBroker {
	if limit < 0 {
		limit = 0
	}
	return &InMemoryBroker{
		handlers: make(map[string][]subscription),
		history:  make(map[string][]Message),
		limit:    limit,
	}
}

// Publish delivers the message to every subscriber of topic, in subscription
// order, and records it in the topic history. Handlers run on the caller's goroutine.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := Message{
		Topic: topic,
		Key:   key,
		Value: append([]byte(nil), value...),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.limit > 0 {
		h := append(b.history[topic], msg)
		if len(h) > b.limit {
			h = append([]Message(nil), h[len(h)-b.limit:]...)
		}
		b.history[topic] = h
	}
	subs := append([]subscription(nil), b.handlers[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		s.handler(msg)
	}
	return nil
}

// Subscribe registers handler for topic.
func (b *InMemoryBroker) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[topic]
		for i, s := range subs {
			if s.id == id {
				b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.handlers[topic]) == 0 {
			delete(b.handlers, topic)
		}
	}
}

// Messages returns the recent messages published to topic, oldest first.
func (b *InMemoryBroker) Messages(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Message, len(b.history[topic]))
	copy(out, b.history[topic])
	return out
}

// Close marks the broker closed and drops all subscriptions.
// Further publishes fail with ErrClosed.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = make(map[string][]subscription)
	return nil
}
