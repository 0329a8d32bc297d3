package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/internal/testutils"
	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := testutils.LoadCatalog()
	require.NoError(t, err)
	shop, err := kiosk.New(cat, kiosk.WithIDGenerator(func() string { return "order-42" }))
	require.NoError(t, err)
	return NewServer(shop)
}

func TestHandleDispatch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"username": "Alice",
		"command":  "start",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Session)
	assert.Equal(t, dispatch.TextSelectCountry, resp.View.Text)

	resp, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"first_name": "Jane",
		"last_name":  "Doe",
		"data":       "quantity|flowers|roses|red|10",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane_Doe", resp.Session)

	resp, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"user_id": float64(42),
		"text":    "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "id_42", resp.Session)
	assert.True(t, resp.View.Ignored)

	t.Run("Rejects", func(t *testing.T) {
		_, err := s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"command": "start"})
		assert.Error(t, err)

		_, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"username": "a"})
		assert.ErrorIs(t, err, dispatch.ErrInvalidRequest)
	})
}

func TestHandleViewCart(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleViewCart(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session": "nobody"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"username": "alice",
		"data":     "quantity|flowers|roses|red|10",
	})
	require.NoError(t, err)

	resp, err := s.handleViewCart(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session": "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"- 10 of Red Rose @ €12,500/unit"}, resp.Lines)
	assert.Equal(t, "12500.00€", resp.FormattedTotal)
}

func TestHandleListOrders(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Name = "list_orders"
	req.Params.Arguments = map[string]any{"session": "alice"}

	result, err := s.handleListOrders(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError, "unknown session")

	_, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"username": "alice", "command": "start"})
	require.NoError(t, err)

	result, err = s.handleListOrders(ctx, req)
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "No orders yet.", text.Text)
}

func TestReadCatalog(t *testing.T) {
	s := newTestServer(t)

	contents, err := s.readCatalog(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, CatalogURI, text.URI)

	var got outline
	require.NoError(t, json.Unmarshal([]byte(text.Text), &got))
	assert.Equal(t, []string{"Portugal", "Spain"}, got.Countries)
	require.NotEmpty(t, got.Categories)
	assert.Equal(t, "flowers", got.Categories[0].Key)
	red := got.Categories[0].Subcategories[0].Products[0]
	assert.Equal(t, "red", red.Key)
	assert.Contains(t, red.Quantities, "10")
}
