package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk/pkg/adapters/memory"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/feed/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func orderEvent() domain.FeedEvent {
	note := "Ring twice"
	return domain.FeedEvent{
		Type:       domain.FeedOrderPlaced,
		SessionKey: "jane",
		Details:    map[string]string{"method": "btc", "delivery_address": "1 Main St"},
		Order: &domain.OrderRecord{
			ID:    "order-1",
			Items: []string{"- 1 of Red Rose @ €10/unit"},
			Total: 10,
			Shipping: domain.ShippingDetails{
				Name:    "Jane Doe",
				Address: "1 Main St",
				Note:    &note,
			},
			PaymentMethod: "btc",
		},
	}
}

func TestPIIMiddleware_Masking(t *testing.T) {
	sink := memory.NewPublisher()
	pub := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)(sink)

	event := orderEvent()
	require.NoError(t, pub.Publish(context.Background(), event))

	// The caller's event is not modified.
	assert.Equal(t, "Jane Doe", event.Order.Shipping.Name)
	assert.Equal(t, "1 Main St", event.Details["delivery_address"])

	got := sink.Events()
	require.Len(t, got, 1)
	assert.Equal(t, middleware.Mask, got[0].Order.Shipping.Name)
	assert.Equal(t, middleware.Mask, got[0].Order.Shipping.Address)
	require.NotNil(t, got[0].Order.Shipping.Note)
	assert.Equal(t, middleware.Mask, *got[0].Order.Shipping.Note)
	assert.Equal(t, middleware.Mask, got[0].Details["delivery_address"])
	assert.Equal(t, "btc", got[0].Details["method"])
	assert.Equal(t, 10.0, got[0].Order.Total)
}

func TestPIIMiddleware_AbsentNoteStaysAbsent(t *testing.T) {
	sink := memory.NewPublisher()
	pub := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)(sink)

	event := orderEvent()
	event.Order.Shipping.Note = nil
	require.NoError(t, pub.Publish(context.Background(), event))
	assert.Nil(t, sink.Events()[0].Order.Shipping.Note)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	key := generateKey(t)
	cfg := middleware.EncryptionConfig{ActiveKey: key}
	sink := memory.NewPublisher()
	pub := middleware.NewEncryptionMiddleware(cfg)(sink)

	event := orderEvent()
	require.NoError(t, pub.Publish(context.Background(), event))

	got := sink.Events()
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Order.Shipping.Name, "shipping must not travel in clear text")
	assert.NotEmpty(t, got[0].Details[middleware.SealedShippingKey])
	assert.Equal(t, "Jane Doe", event.Order.Shipping.Name)

	shipping, err := middleware.OpenShipping(got[0], cfg)
	require.NoError(t, err)
	assert.Equal(t, event.Order.Shipping, shipping)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	oldKey, newKey := generateKey(t), generateKey(t)
	sink := memory.NewPublisher()
	pub := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(sink)
	require.NoError(t, pub.Publish(context.Background(), orderEvent()))
	sealed := sink.Events()[0]

	_, err := middleware.OpenShipping(sealed, middleware.EncryptionConfig{ActiveKey: newKey})
	assert.Error(t, err)

	shipping, err := middleware.OpenShipping(sealed, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", shipping.Address)
}

func TestEncryptionMiddleware_ActivityPassesThrough(t *testing.T) {
	sink := memory.NewPublisher()
	pub := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(sink)

	activity := domain.FeedEvent{Type: domain.FeedActivity, SessionKey: "jane", Action: "view_cart"}
	require.NoError(t, pub.Publish(context.Background(), activity))
	assert.Equal(t, []domain.FeedEvent{activity}, sink.Events())
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}

func TestChain(t *testing.T) {
	key := generateKey(t)
	sink := memory.NewPublisher()
	pub := middleware.Chain(sink,
		middleware.NewPIIMiddleware([]string{`address`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	require.NoError(t, pub.Publish(context.Background(), orderEvent()))

	got := sink.Events()[0]
	assert.Equal(t, middleware.Mask, got.Details["delivery_address"])
	shipping, err := middleware.OpenShipping(got, middleware.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", shipping.Name)
	assert.Equal(t, middleware.Mask, shipping.Address)
}
