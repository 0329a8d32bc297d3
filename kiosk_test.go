package kiosk_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/internal/testutils"
	"github.com/aretw0/kiosk/pkg/adapters/memory"
	"github.com/aretw0/kiosk/pkg/domain"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpen(t *testing.T) {
	rec := testutils.NewRecorder()
	shop, err := kiosk.Open(writeCatalog(t, "```json\n"+testutils.CatalogJSON+"\n```"), kiosk.WithRecorder(rec))
	require.NoError(t, err)
	assert.Equal(t, "data.json", shop.Name)
	assert.False(t, shop.Catalog().Degraded)
	assert.Equal(t, []bool{false}, rec.CatalogDegraded)
}

func TestOpen_Degraded(t *testing.T) {
	shop, err := kiosk.Open(writeCatalog(t, "{not json"))
	var loadErr *domain.LoadError
	require.ErrorAs(t, err, &loadErr)
	require.NotNil(t, shop, "a degraded shop is still usable")
	assert.True(t, shop.Catalog().Degraded)

	view, err := shop.Dispatch(context.Background(), domain.Event{
		Identity: domain.Identity{UserID: 9},
		Kind:     domain.EventSelection,
		Action:   domain.Action{Kind: domain.ActionProducts},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, view.Actions)
}

func TestOpen_MissingFile(t *testing.T) {
	shop, err := kiosk.Open(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	require.NotNil(t, shop)
	assert.True(t, shop.Catalog().Degraded)
}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := kiosk.New(nil)
	assert.Error(t, err)
}

func TestShop_OrderFlow(t *testing.T) {
	cat, err := testutils.LoadCatalog()
	require.NoError(t, err)

	placedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	publisher := memory.NewPublisher()
	shop, err := kiosk.New(cat,
		kiosk.WithPublisher(publisher),
		kiosk.WithClock(func() time.Time { return placedAt }),
		kiosk.WithIDGenerator(func() string { return "fixed-id" }),
	)
	require.NoError(t, err)

	ctx := context.Background()
	user := domain.Identity{UserID: 5, FirstName: "Jane", LastName: "Doe"}
	sel := func(a domain.Action) {
		_, err := shop.Dispatch(ctx, domain.Event{Identity: user, Kind: domain.EventSelection, Action: a})
		require.NoError(t, err)
	}
	text := func(s string) {
		_, err := shop.Dispatch(ctx, domain.Event{Identity: user, Kind: domain.EventText, Text: s})
		require.NoError(t, err)
	}

	_, err = shop.Cart(ctx, user.Key())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	sel(domain.Action{Kind: domain.ActionAddQuantity, Category: "flowers", Subcategory: "roses", Product: "red", Quantity: "5"})
	sel(domain.Action{Kind: domain.ActionAddQuantity, Category: "flowers", Subcategory: "roses", Product: "white", Quantity: "1"})

	sum, err := shop.Cart(ctx, "Jane_Doe")
	require.NoError(t, err)
	assert.Equal(t, 47.0, sum.Total)

	sel(domain.Action{Kind: domain.ActionCheckout})
	text("Jane Doe")
	text("1 Main St")
	text("skip")
	sel(domain.Action{Kind: domain.ActionConfirmPayment, Method: "usdt_trc20"})

	orders, err := shop.Orders(ctx, "Jane_Doe")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "fixed-id", orders[0].ID)
	assert.Equal(t, placedAt, orders[0].PlacedAt)
	assert.Equal(t, 47.0, orders[0].Total)
	assert.Equal(t, []string{"- 5 of Red Rose @ 40", "- 1 of White Rose @ 7"}, orders[0].Items)

	sum, err = shop.Cart(ctx, "Jane_Doe")
	require.NoError(t, err)
	assert.Empty(t, sum.Lines)
	assert.Len(t, publisher.Orders(), 1)
}

func TestShop_CustomStoreAndPages(t *testing.T) {
	cat, err := testutils.LoadCatalog()
	require.NoError(t, err)
	store := memory.NewStore()
	pages := memory.NewPages(map[string]string{"help": "Call us."})

	shop, err := kiosk.New(cat, kiosk.WithStore(store), kiosk.WithPages(pages))
	require.NoError(t, err)

	view, err := shop.Dispatch(context.Background(), domain.Event{
		Identity: domain.Identity{Username: "bob"},
		Kind:     domain.EventSelection,
		Action:   domain.Action{Kind: domain.ActionHelp},
	})
	require.NoError(t, err)
	assert.Equal(t, "Call us.", view.Text)

	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, keys)
	assert.Same(t, pages, shop.Pages())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, kiosk.Version)
}
