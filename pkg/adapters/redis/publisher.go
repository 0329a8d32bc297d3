package redis

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/kiosk/pkg/domain"
)

const (
	defaultPrefix = "kiosk:"
	defaultMaxLen = 10000
)

// Publisher implements ports.OrderPublisher on a Redis stream.
// Every feed event is appended to "<prefix>feed"; placed orders are also
// indexed by time in the "<prefix>orders" sorted set.
type Publisher struct {
	client *backend.Client
	prefix string
	maxLen int64
}

type Option func(*Publisher)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// WithMaxLen caps the stream length (approximately). Zero disables trimming.
func WithMaxLen(n int64) Option {
	return func(p *Publisher) {
		p.maxLen = n
	}
}

// New creates a new Redis publisher with options.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		prefix: defaultPrefix,
		maxLen: defaultMaxLen,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StreamKey is the stream the events are appended to.
func (p *Publisher) StreamKey() string {
	return p.prefix + "feed"
}

func (p *Publisher) ordersKey() string {
	return p.prefix + "orders"
}

// Publish appends the event to the stream.
func (p *Publisher) Publish(ctx context.Context, event domain.FeedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &backend.XAddArgs{
		Stream: p.StreamKey(),
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
		Values: map[string]any{
			"type":    string(event.Type),
			"session": event.SessionKey,
			"payload": data,
		},
	})
	if event.Type == domain.FeedOrderPlaced && event.Order != nil {
		pipe.ZAdd(ctx, p.ordersKey(), backend.Z{
			Score:  float64(event.Order.PlacedAt.Unix()),
			Member: event.Order.ID,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Recent returns up to n of the latest events, newest first.
func (p *Publisher) Recent(ctx context.Context, n int64) ([]domain.FeedEvent, error) {
	msgs, err := p.client.XRevRangeN(ctx, p.StreamKey(), "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	events := make([]domain.FeedEvent, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["payload"].(string)
		if !ok {
			return nil, fmt.Errorf("feed entry %s has no payload", msg.ID)
		}
		var e domain.FeedEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feed entry %s: %w", msg.ID, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// OrderIDs returns the IDs of published orders, oldest first.
func (p *Publisher) OrderIDs(ctx context.Context) ([]string, error) {
	ids, err := p.client.ZRange(ctx, p.ordersKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
