// Package notify publishes small JSON documents to topic-addressed side channels.
// Delivery is best effort.
package notify

import (
	"context"
	"errors"
)

// Publisher sends payload to topic
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

// Noop discards everything; used when no broker is configured
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }

func (Noop) Close() error { return nil }

// Multi fans a message out to every publisher
type Multi []Publisher

// NewMulti drops nil publishers and collapses to Noop or the single publisher left
func NewMulti(publishers ...Publisher) Publisher {
	var out Multi
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return Noop{}
	case 1:
		return out[0]
	default:
		return out
	}
}

// Publish delivers to all publishers even when some fail; errors are joined
func (m Multi) Publish(ctx context.Context, topic string, payload []byte) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
