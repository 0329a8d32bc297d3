package memory

import (
	"context"
	"sync"

	"github.com/aretw0/kiosk/pkg/domain"
)

// Publisher implements ports.OrderPublisher by keeping every event in memory.
// It backs the console transport and tests.
type Publisher struct {
	mu     sync.Mutex
	events []domain.FeedEvent
}

// NewPublisher creates an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish records a copy of the event.
func (p *Publisher) Publish(ctx context.Context, event domain.FeedEvent) error {
	if event.Details != nil {
		details := make(map[string]string, len(event.Details))
		for k, v := range event.Details {
			details[k] = v
		}
		event.Details = details
	}
	if event.Order != nil {
		order := *event.Order
		order.Items = append([]string(nil), order.Items...)
		event.Order = &order
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns the recorded events in publish order.
func (p *Publisher) Events() []domain.FeedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.FeedEvent(nil), p.events...)
}

// Orders returns only the order_placed events.
func (p *Publisher) Orders() []domain.FeedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.FeedEvent
	for _, e := range p.events {
		if e.Type == domain.FeedOrderPlaced {
			out = append(out, e)
		}
	}
	return out
}
