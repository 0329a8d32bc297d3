package ports

import (
	"context"
	"errors"

	"github.com/aretw0/kiosk/pkg/domain"
)

// OrderPublisher receives notifications emitted while handling events.
// Implementations must not retain the event after Publish returns.
type OrderPublisher interface {
	Publish(ctx context.Context, event domain.FeedEvent) error
}

// PublisherFunc adapts a function to OrderPublisher.
type PublisherFunc func(ctx context.Context, event domain.FeedEvent) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, event domain.FeedEvent) error {
	return f(ctx, event)
}

// Fanout publishes every event to all publishers in order. A failing
// publisher does not stop the others; their errors are joined.
func Fanout(pubs ...OrderPublisher) OrderPublisher {
	return PublisherFunc(func(ctx context.Context, event domain.FeedEvent) error {
		var errs []error
		for _, p := range pubs {
			if p == nil {
				continue
			}
			if err := p.Publish(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
