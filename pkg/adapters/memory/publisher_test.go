package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk/pkg/adapters/memory"
	"github.com/aretw0/kiosk/pkg/domain"
)

func TestPublisher_RecordsCopies(t *testing.T) {
	pub := memory.NewPublisher()
	ctx := context.Background()

	details := map[string]string{"product": "red"}
	require.NoError(t, pub.Publish(ctx, domain.FeedEvent{
		Type: domain.FeedActivity, SessionKey: "alice", Timestamp: time.Now(), Action: "add_to_cart", Details: details,
	}))
	order := &domain.OrderRecord{ID: "o-1", Items: []string{"- 1 of Red Rose @ €10/unit"}, Total: 10}
	require.NoError(t, pub.Publish(ctx, domain.FeedEvent{
		Type: domain.FeedOrderPlaced, SessionKey: "alice", Timestamp: time.Now(), Order: order,
	}))

	details["product"] = "mutated"
	order.Items[0] = "mutated"

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "red", events[0].Details["product"])
	assert.Equal(t, "- 1 of Red Rose @ €10/unit", events[1].Order.Items[0])

	orders := pub.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "o-1", orders[0].Order.ID)
}
