package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/kiosk"
	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/cart"
	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/runner"
)

// Shop is the part of the storefront the HTTP transport needs.
type Shop interface {
	Dispatch(ctx context.Context, ev domain.Event) (*domain.View, error)
	Cart(ctx context.Context, key string) (cart.Summary, error)
	Orders(ctx context.Context, key string) ([]domain.OrderRecord, error)
}

// Server serves the storefront over HTTP.
type Server struct {
	Shop    Shop
	Streams *StreamManager

	logger     *slog.Logger
	metrics    http.Handler
	apiVersion string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager, typically one also used as the
// shop's publisher.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts a scrape handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for the shop.
func NewHandler(shop Shop, opts ...Option) (http.Handler, error) {
	server := &Server{Shop: shop, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	server.apiVersion = doc.Info.Version
	validate, err := requestValidator(doc, server.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Post("/events", server.PostEvent)
	r.Get("/events/stream", server.SubscribeEvents)
	r.Get("/sessions/{key}/cart", server.GetCart)
	r.Get("/sessions/{key}/orders", server.GetOrders)

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Kiosk API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// PostEvent handles the POST /events request.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var body dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("PostEvent: Invalid request body", "err", err)
		return
	}
	if body.Identity == (domain.Identity{}) {
		writeError(w, http.StatusBadRequest, "identity is required")
		return
	}

	// Sanitize Input (Global Policy)
	if body.Text != "" {
		clean, err := runner.SanitizeInput(body.Text)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid input: %v", err))
			s.logger.Warn("PostEvent: Input rejected", "err", err, "size", len(body.Text))
			return
		}
		body.Text = clean
	}

	ev, err := body.Event()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.Shop.Dispatch(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to handle event")
		s.logger.Error("Dispatch failed", "session", ev.Identity.Key(), "err", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type cartResponse struct {
	Lines          []string `json:"lines"`
	Total          float64  `json:"total"`
	FormattedTotal string   `json:"formatted_total"`
	Unresolved     int      `json:"unresolved"`
}

// GetCart handles the GET /sessions/{key}/cart request.
func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	sum, err := s.Shop.Cart(r.Context(), key)
	if err != nil {
		s.sessionError(w, key, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Lines:          sum.Lines,
		Total:          sum.Total,
		FormattedTotal: sum.FormattedTotal(),
		Unresolved:     sum.Unresolved,
	})
}

// GetOrders handles the GET /sessions/{key}/orders request.
func (s *Server) GetOrders(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	orders, err := s.Shop.Orders(r.Context(), key)
	if err != nil {
		s.sessionError(w, key, err)
		return
	}
	if orders == nil {
		orders = []domain.OrderRecord{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) sessionError(w http.ResponseWriter, key string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to load session")
	s.logger.Error("Session load failed", "session", key, "err", err)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "kiosk-http",
		"version":     strings.TrimSpace(kiosk.Version),
		"api_version": s.apiVersion,
	})
}

// SubscribeEvents handles the GET /events/stream request (SSE).
// The optional "types" query parameter filters by feed event type.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	key := r.URL.Query().Get("session")
	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			types = append(types, strings.TrimSpace(t))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to session feed", "session", key)
	ch, cancel := s.Streams.Subscribe(key)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session", key)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(types) > 0 && !contains(types, msg.Type) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
