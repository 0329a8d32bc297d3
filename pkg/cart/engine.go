package cart

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
	"github.com/aretw0/kiosk/pkg/pricing"
)

// UnknownPrice marks summary lines whose price could not be resolved.
const UnknownPrice = "Unknown price"

// TagUnresolvedEntry is the log tag for cart entries whose catalog path vanished.
const TagUnresolvedEntry = "unresolved_cart_entry"

// Summary is the priced view of a cart.
type Summary struct {
	// Lines are display strings in cart insertion order.
	Lines []string
	Total float64
	// Unresolved counts entries shown with UnknownPrice.
	Unresolved int
}

// FormattedTotal renders the total for display.
func (s Summary) FormattedTotal() string {
	return pricing.Format(s.Total)
}

// Engine implements the cart operations against a catalog.
// It is stateless; all state lives in the session it is given.
type Engine struct {
	catalog  *domain.Catalog
	parser   *pricing.Parser
	logger   *slog.Logger
	recorder ports.Recorder
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRecorder configures the observability sink.
func WithRecorder(r ports.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithParser overrides the price parser.
func WithParser(p *pricing.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// NewEngine creates a cart Engine for the catalog.
func NewEngine(catalog *domain.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:  catalog,
		logger:   logging.NewNop(),
		recorder: ports.NopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parser == nil {
		e.parser = pricing.NewParser(pricing.WithLogger(e.logger), pricing.WithRecorder(e.recorder))
	}
	return e
}

// Catalog returns the catalog the engine resolves against.
func (e *Engine) Catalog() *domain.Catalog {
	return e.catalog
}

// AddCatalogItem appends a catalog-backed entry. The path must resolve and the
// label must be one of the product's quantity options, or empty (or "1" for a
// product without options) meaning the flat price.
// The price is not computed here; Summarize resolves it.
func (e *Engine) AddCatalogItem(s *domain.Session, ref domain.ProductRef, label string) (*domain.Product, error) {
	product, err := e.catalog.Product(ref)
	if err != nil {
		return nil, err
	}
	if !acceptsLabel(product, label) {
		return nil, domain.NewValidationError("quantity", fmt.Sprintf("%q is not available for %s", label, product.Name))
	}
	s.Cart = append(s.Cart, domain.NewCatalogEntry(ref, label))
	return product, nil
}

func acceptsLabel(p *domain.Product, label string) bool {
	switch {
	case label == "":
		return true
	case p.Price.HasLabel(label):
		return true
	default:
		return label == pricing.UnitLabel && len(p.Price.Quantities) == 0
	}
}

// ParseQuantity validates typed quantity input: decimal digits only, positive.
func ParseQuantity(input string) (int, error) {
	text := strings.TrimSpace(input)
	if text == "" || strings.IndexFunc(text, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		return 0, domain.NewValidationError("quantity", "Please enter a valid number.")
	}
	qty, err := strconv.Atoi(text)
	if err != nil {
		return 0, domain.NewValidationError("quantity", "That number is too large.")
	}
	if qty <= 0 {
		return 0, domain.NewValidationError("quantity", "Please enter a number greater than zero.")
	}
	return qty, nil
}

// AddCustomQuantity prices a typed quantity once and appends it as a
// precomputed entry. The frozen price never changes afterwards.
// Invalid input returns a *domain.ValidationError and leaves the cart untouched.
func (e *Engine) AddCustomQuantity(s *domain.Session, ref domain.ProductRef, input string) (domain.CartEntry, error) {
	qty, err := ParseQuantity(input)
	if err != nil {
		return domain.CartEntry{}, err
	}
	product, err := e.catalog.Product(ref)
	if err != nil {
		return domain.CartEntry{}, err
	}

	unit := e.parser.UnitPrice(product)
	total := float64(qty) * unit
	if math.IsInf(total, 0) {
		return domain.CartEntry{}, domain.NewValidationError("quantity", "That number is too large.")
	}

	entry := domain.NewPrecomputedEntry(product.Name, qty, pricing.Format(total))
	s.Cart = append(s.Cart, entry)
	return entry, nil
}

// Summarize prices every entry in insertion order. It never fails: entries
// that cannot be priced are shown with UnknownPrice and contribute zero.
func (e *Engine) Summarize(s *domain.Session) Summary {
	sum := Summary{Lines: make([]string, 0, len(s.Cart))}
	for _, entry := range s.Cart {
		line, amount, ok := e.price(s.Key, entry)
		sum.Lines = append(sum.Lines, line)
		sum.Total += amount
		if !ok {
			sum.Unresolved++
		}
	}
	return sum
}

func (e *Engine) price(sessionKey string, entry domain.CartEntry) (string, float64, bool) {
	if entry.Kind == domain.EntryPrecomputed {
		line := fmt.Sprintf("- %d of %s @ %s", entry.Quantity, entry.ProductName, entry.FrozenPrice)
		return line, e.parser.Parse(entry.FrozenPrice), true
	}

	qty := entry.QuantityLabel
	if qty == "" {
		qty = pricing.UnitLabel
	}

	product, err := e.catalog.Product(entry.Ref)
	if err != nil {
		e.logger.Warn("Cart entry no longer resolves",
			"tag", TagUnresolvedEntry,
			"session", sessionKey,
			"ref", entry.Ref.String(),
			"err", err,
		)
		e.recorder.UnresolvedCartEntry()
		return fmt.Sprintf("- %s of %s @ %s", qty, entry.Ref.Product, UnknownPrice), 0, false
	}

	raw := product.Price.Flat
	if p, ok := product.Price.Lookup(entry.QuantityLabel); ok {
		raw = p
	}
	if raw == nil {
		e.logger.Warn("Cart entry has no price",
			"tag", TagUnresolvedEntry,
			"session", sessionKey,
			"ref", entry.Ref.String(),
			"quantity", entry.QuantityLabel,
		)
		e.recorder.UnresolvedCartEntry()
		return fmt.Sprintf("- %s of %s @ %s", qty, product.Name, UnknownPrice), 0, false
	}

	return fmt.Sprintf("- %s of %s @ %s", qty, product.Name, raw.String()), e.parser.Parse(raw.Raw), true
}

// Clear empties the cart. Called when an order is placed, not on cancel.
func (e *Engine) Clear(s *domain.Session) {
	s.Cart = []domain.CartEntry{}
}
