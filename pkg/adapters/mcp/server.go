package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/cart"
	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/runner"
)

// CatalogURI is the resource exposing the catalog outline.
const CatalogURI = "kiosk://catalog"

// DispatchResponse is the structured result of the dispatch_event tool.
type DispatchResponse struct {
	Session string       `json:"session" jsonschema_description:"The session key the event was applied to"`
	View    *domain.View `json:"view" jsonschema_description:"The view to show: text, media and the actions offered next"`
}

// CartResponse is the structured result of the view_cart tool.
type CartResponse struct {
	Session        string   `json:"session"`
	Lines          []string `json:"lines" jsonschema_description:"One display line per cart entry"`
	Total          float64  `json:"total"`
	FormattedTotal string   `json:"formatted_total"`
	Unresolved     int      `json:"unresolved" jsonschema_description:"Entries shown with an unknown price"`
}

// Shop is the part of the storefront the MCP server needs.
type Shop interface {
	Dispatch(ctx context.Context, ev domain.Event) (*domain.View, error)
	Cart(ctx context.Context, key string) (cart.Summary, error)
	Orders(ctx context.Context, key string) ([]domain.OrderRecord, error)
	Catalog() *domain.Catalog
}

// Server wraps the Shop and exposes it as an MCP Server.
type Server struct {
	shop      Shop
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(shop Shop, opts ...Option) *Server {
	s := &Server{
		shop:      shop,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("kiosk-mcp", strings.TrimSpace(kiosk.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	dispatchTool := mcp.NewTool("dispatch_event",
		mcp.WithDescription("Send one chat event for a user and get the view to show. Set exactly one of command, data or text."),
		mcp.WithString("username", mcp.Description("Platform username; the preferred session identity")),
		mcp.WithString("first_name", mcp.Description("Display first name, used when there is no username")),
		mcp.WithString("last_name", mcp.Description("Display last name")),
		mcp.WithNumber("user_id", mcp.Description("Numeric user id, used when there is no name at all")),
		mcp.WithString("command", mcp.Description("A command such as start, reviews, faqs or help")),
		mcp.WithString("data", mcp.Description("The data of an action offered by a previous view")),
		mcp.WithString("text", mcp.Description("Free text typed by the user")),
		mcp.WithOutputSchema[DispatchResponse](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	cartTool := mcp.NewTool("view_cart",
		mcp.WithDescription("Show the priced cart of a session."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session key, e.g. a lower-cased username")),
		mcp.WithOutputSchema[CartResponse](),
	)
	s.mcpServer.AddTool(cartTool, mcp.NewStructuredToolHandler(s.handleViewCart))

	s.mcpServer.AddTool(mcp.NewTool("list_orders",
		mcp.WithDescription("List the orders placed by a session."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session key")),
	), s.handleListOrders)
}

func identityFromArgs(args map[string]interface{}) domain.Identity {
	id := domain.Identity{}
	id.Username, _ = args["username"].(string)
	id.FirstName, _ = args["first_name"].(string)
	id.LastName, _ = args["last_name"].(string)
	if n, ok := args["user_id"].(float64); ok {
		id.UserID = int64(n)
	}
	return id
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DispatchResponse, error) {
	req := dispatch.Request{Identity: identityFromArgs(args)}
	req.Command, _ = args["command"].(string)
	req.Data, _ = args["data"].(string)
	req.Text, _ = args["text"].(string)

	if req.Identity == (domain.Identity{}) {
		return DispatchResponse{}, errors.New("one of username, first_name or user_id is required")
	}
	if req.Text != "" {
		clean, err := runner.SanitizeInput(req.Text)
		if err != nil {
			s.logger.Warn("MCP Dispatch: Input rejected", "err", err, "size", len(req.Text))
			return DispatchResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		req.Text = clean
	}

	ev, err := req.Event()
	if err != nil {
		return DispatchResponse{}, err
	}
	view, err := s.shop.Dispatch(ctx, ev)
	if err != nil {
		s.logger.Error("MCP Dispatch failed", "session", ev.Identity.Key(), "err", err)
		return DispatchResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}
	return DispatchResponse{Session: ev.Identity.Key(), View: view}, nil
}

func (s *Server) handleViewCart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CartResponse, error) {
	key, _ := args["session"].(string)
	sum, err := s.shop.Cart(ctx, key)
	if err != nil {
		return CartResponse{}, fmt.Errorf("failed to load cart: %w", err)
	}
	return CartResponse{
		Session:        key,
		Lines:          sum.Lines,
		Total:          sum.Total,
		FormattedTotal: sum.FormattedTotal(),
		Unresolved:     sum.Unresolved,
	}, nil
}

func (s *Server) handleListOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("session", "")
	orders, err := s.shop.Orders(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load orders: %v", err)), nil
	}
	if len(orders) == 0 {
		return mcp.NewToolResultText("No orders yet."), nil
	}
	texts := make([]string, 0, len(orders))
	for _, o := range orders {
		texts = append(texts, dispatch.OrderText(o))
	}
	return mcp.NewToolResultText(strings.Join(texts, "\n\n")), nil
}

// outline is the catalog as exposed to MCP clients: keys, names and price labels.
type outline struct {
	Countries  []string          `json:"countries"`
	Payments   []string          `json:"payment_methods"`
	Categories []outlineCategory `json:"categories"`
	Degraded   bool              `json:"degraded,omitempty"`
}

type outlineCategory struct {
	Key           string               `json:"key"`
	Name          string               `json:"name"`
	Subcategories []outlineSubcategory `json:"subcategories"`
}

type outlineSubcategory struct {
	Key      string           `json:"key"`
	Name     string           `json:"name"`
	Products []outlineProduct `json:"products"`
}

type outlineProduct struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Price      string   `json:"price,omitempty"`
	Quantities []string `json:"quantities,omitempty"`
}

func catalogOutline(c *domain.Catalog) outline {
	out := outline{Countries: c.Countries, Degraded: c.Degraded, Categories: []outlineCategory{}}
	for _, m := range c.PaymentMethods() {
		out.Payments = append(out.Payments, m.Code)
	}
	for _, cat := range c.Categories {
		oc := outlineCategory{Key: cat.Key, Name: cat.Name, Subcategories: []outlineSubcategory{}}
		for _, sub := range cat.Subcategories {
			subOut := outlineSubcategory{Key: sub.Key, Name: sub.Name, Products: []outlineProduct{}}
			for _, p := range sub.Products {
				op := outlineProduct{Key: p.Key, Name: p.Name}
				if p.Price.Flat != nil {
					op.Price = p.Price.Flat.String()
				}
				for _, q := range p.Price.Quantities {
					op.Quantities = append(op.Quantities, q.Label)
				}
				subOut.Products = append(subOut.Products, op)
			}
			oc.Subcategories = append(oc.Subcategories, subOut)
		}
		out.Categories = append(out.Categories, oc)
	}
	return out
}

func (s *Server) readCatalog(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(catalogOutline(s.shop.Catalog()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Catalog Outline",
		mcp.WithMIMEType("application/json"),
	), s.readCatalog)
}
