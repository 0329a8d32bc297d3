package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/adapters/memory"
	"github.com/aretw0/kiosk/pkg/cart"
	"github.com/aretw0/kiosk/pkg/catalog"
	"github.com/aretw0/kiosk/pkg/checkout"
	"github.com/aretw0/kiosk/pkg/dispatch"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
	"github.com/aretw0/kiosk/pkg/session"
)

// Shop is the high-level entry point of the storefront.
// It wires the catalog, the session manager, the cart engine, the checkout
// machine and the dispatcher, and exposes a small API for transports.
type Shop struct {
	catalog    *domain.Catalog
	sessions   *session.Manager
	cart       *cart.Engine
	dispatcher *dispatch.Dispatcher

	store     ports.SessionStore
	pages     ports.PageSource
	publisher ports.OrderPublisher
	recorder  ports.Recorder
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	// Name labels the shop in logs, usually the catalog file name.
	Name string
}

// Option defines a functional option for configuring the Shop.
type Option func(*Shop)

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shop) {
		s.logger = logger
	}
}

// WithRecorder registers the observability sink.
func WithRecorder(r ports.Recorder) Option {
	return func(s *Shop) {
		s.recorder = r
	}
}

// WithPublisher sets where activity and order events are published.
func WithPublisher(p ports.OrderPublisher) Option {
	return func(s *Shop) {
		s.publisher = p
	}
}

// WithPages sets the static page source (default: built-in pages).
func WithPages(p ports.PageSource) Option {
	return func(s *Shop) {
		s.pages = p
	}
}

// WithStore injects a custom session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(s *Shop) {
		s.store = store
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Shop) {
		s.now = now
	}
}

// WithIDGenerator overrides how order IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Shop) {
		s.newID = fn
	}
}

// WithName labels the shop in logs.
func WithName(name string) Option {
	return func(s *Shop) {
		s.Name = name
	}
}

// New creates a Shop serving the given catalog.
func New(cat *domain.Catalog, opts ...Option) (*Shop, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	s := &Shop{catalog: cat}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Name != "" {
		s.logger = s.logger.With("shop", s.Name)
	}
	if s.recorder == nil {
		s.recorder = ports.NopRecorder{}
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}
	if s.pages == nil {
		s.pages = memory.DefaultPages()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.sessions = session.NewManager(s.store,
		session.WithLogger(s.logger),
		session.WithClock(s.now),
	)
	s.cart = cart.NewEngine(cat,
		cart.WithLogger(s.logger),
		cart.WithRecorder(s.recorder),
	)

	machineOpts := []checkout.Option{
		checkout.WithLogger(s.logger),
		checkout.WithRecorder(s.recorder),
		checkout.WithClock(s.now),
	}
	if s.newID != nil {
		machineOpts = append(machineOpts, checkout.WithIDGenerator(s.newID))
	}
	machine := checkout.NewMachine(s.cart, machineOpts...)

	dispatchOpts := []dispatch.Option{
		dispatch.WithLogger(s.logger),
		dispatch.WithRecorder(s.recorder),
		dispatch.WithPages(s.pages),
		dispatch.WithClock(s.now),
	}
	if s.publisher != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithPublisher(s.publisher))
	}
	s.dispatcher = dispatch.New(s.sessions, s.cart, machine, dispatchOpts...)

	return s, nil
}

// Open loads the catalog document at path and creates a Shop for it.
// A catalog that fails to load is replaced by safe defaults: the Shop is
// still returned, together with the *domain.LoadError that caused it.
func Open(path string, opts ...Option) (*Shop, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	probe := &Shop{}
	for _, opt := range opts {
		opt(probe)
	}
	var loadOpts []catalog.Option
	if probe.logger != nil {
		loadOpts = append(loadOpts, catalog.WithLogger(probe.logger))
	}
	if probe.recorder != nil {
		loadOpts = append(loadOpts, catalog.WithRecorder(probe.recorder))
	}

	cat, loadErr := catalog.LoadFile(absPath, loadOpts...)
	shop, err := New(cat, append([]Option{WithName(filepath.Base(absPath))}, opts...)...)
	if err != nil {
		return nil, err
	}
	return shop, loadErr
}

// Dispatch handles one parsed event and returns the view to render.
func (s *Shop) Dispatch(ctx context.Context, ev domain.Event) (*domain.View, error) {
	return s.dispatcher.Dispatch(ctx, ev)
}

// Session returns a copy of the stored session for the key.
// Returns domain.ErrSessionNotFound if the user never interacted.
func (s *Shop) Session(ctx context.Context, key string) (*domain.Session, error) {
	return s.sessions.Load(ctx, key)
}

// Cart returns the priced cart of the session with the given key.
func (s *Shop) Cart(ctx context.Context, key string) (cart.Summary, error) {
	sess, err := s.sessions.Load(ctx, key)
	if err != nil {
		return cart.Summary{}, err
	}
	return s.cart.Summarize(sess), nil
}

// Orders returns the orders placed by the session with the given key.
func (s *Shop) Orders(ctx context.Context, key string) ([]domain.OrderRecord, error) {
	sess, err := s.sessions.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return sess.Orders, nil
}

// Catalog returns the catalog the shop serves.
func (s *Shop) Catalog() *domain.Catalog {
	return s.catalog
}

// Sessions returns the session manager.
func (s *Shop) Sessions() *session.Manager {
	return s.sessions
}

// Pages returns the static page source.
func (s *Shop) Pages() ports.PageSource {
	return s.pages
}
