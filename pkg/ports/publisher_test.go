package ports_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

func TestFanout(t *testing.T) {
	var got []string
	record := func(name string) ports.OrderPublisher {
		return ports.PublisherFunc(func(_ context.Context, e domain.FeedEvent) error {
			got = append(got, name+":"+e.Action)
			return nil
		})
	}
	failing := ports.PublisherFunc(func(context.Context, domain.FeedEvent) error {
		return errors.New("stream down")
	})

	pub := ports.Fanout(record("a"), failing, nil, record("b"))
	err := pub.Publish(context.Background(), domain.FeedEvent{Action: "start"})

	assert.ErrorContains(t, err, "stream down")
	assert.Equal(t, []string{"a:start", "b:start"}, got)
	assert.NoError(t, ports.Fanout().Publish(context.Background(), domain.FeedEvent{}))
}
