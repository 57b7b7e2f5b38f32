package broker

import (
	"context"
	"errors"
)

// Fanout publishes every message to all of its brokers.
// Subscribe goes to the first broker that supports it.
type Fanout struct {
	brokers []Broker
}

// NewFanout creates a Fanout over brokers.
func NewFanout(brokers ...Broker) *Fanout {
	return &Fanout{brokers: brokers}
}

// Publish sends the message to every broker and joins their errors.
func (f *Fanout) Publish(ctx context.Context, topic string, key string, value []byte) error {
	var errs []error
	for _, b := range f.brokers {
		if err := b.Publish(ctx, topic, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler on the first in-process broker.
// Without one, the handler never runs.
func (f *Fanout) Subscribe(topic string, handler Handler) func() {
	for _, b := range f.brokers {
		if s, ok := b.(Subscriber); ok {
			return s.Subscribe(topic, handler)
		}
	}
	return func() {}
}

// Close closes every broker.
func (f *Fanout) Close() error {
	var errs []error
	for _, b := range f.brokers {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
