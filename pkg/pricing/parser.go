package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

// DefaultUnitPrice is charged per unit for a custom quantity when the product
// has neither a "1" quantity price nor a usable flat price.
const DefaultUnitPrice = 50.0

// UnitLabel is the quantity label that holds the single-unit price.
const UnitLabel = "1"

// Log tags used to tell the two recoveries apart.
const (
	TagParseFailure = "price_parse_failure"
	TagDefaultPrice = "default_unit_price"
)

// Failure reasons reported to the Recorder.
const (
	ReasonMissing   = "missing"
	ReasonMalformed = "malformed"
)

var (
	// ErrMissingPrice is returned when there is no price value at all.
	ErrMissingPrice = errors.New("price is missing")
	// ErrMalformedPrice is returned when a price value cannot be read as a number.
	ErrMalformedPrice = errors.New("price is malformed")
)

// stripTokens are removed from price strings before parsing.
var stripTokens = []string{"€", "$", "£", "/unit", ","}

// ParseStrict normalizes a raw price into a number.
// Numbers are returned as-is. Strings have currency glyphs, the "/unit"
// suffix and thousands separators removed; the leading whitespace-delimited
// token is then parsed as a decimal number.
func ParseStrict(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, ErrMissingPrice
	case domain.Price:
		return ParseStrict(v.Raw)
	case *domain.Price:
		if v == nil {
			return 0, ErrMissingPrice
		}
		return ParseStrict(v.Raw)
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return parseString(string(v))
	case string:
		return parseString(v)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrMalformedPrice, raw)
	}
}

func parseString(s string) (float64, error) {
	for _, tok := range stripTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: no number found", ErrMalformedPrice)
	}
	val, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPrice, fields[0])
	}
	return val, nil
}

// Parser wraps ParseStrict with the permissive recovery policy: failures
// become 0.0 and are reported to the logger and Recorder, never to the user.
type Parser struct {
	logger   *slog.Logger
	recorder ports.Recorder
}

// Option configures the Parser.
type Option func(*Parser)

// WithLogger configures a logger for the Parser.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithRecorder configures the observability sink.
func WithRecorder(r ports.Recorder) Option {
	return func(p *Parser) {
		p.recorder = r
	}
}

// NewParser creates a Parser. Without options it logs nowhere and records nothing.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger:   logging.NewNop(),
		recorder: ports.NopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns the numeric price, or 0.0 if raw cannot be parsed.
func (p *Parser) Parse(raw any) float64 {
	val, err := ParseStrict(raw)
	if err != nil {
		p.fail(raw, err)
		return 0
	}
	return val
}

// TryParse is like Parse but also reports whether parsing succeeded,
// so callers can render a placeholder instead of a zero.
func (p *Parser) TryParse(raw any) (float64, bool) {
	val, err := ParseStrict(raw)
	if err != nil {
		p.fail(raw, err)
		return 0, false
	}
	return val, true
}

func (p *Parser) fail(raw any, err error) {
	reason := reasonFor(err)
	p.logger.Warn("Failed to parse price",
		"tag", TagParseFailure,
		"reason", reason,
		"raw", fmt.Sprint(raw),
		"err", err,
	)
	p.recorder.PriceParseFailed(reason)
}

// UnitPrice resolves the price of a single unit of product for custom quantities.
// It prefers the "1" quantity price, then the flat price, then DefaultUnitPrice.
func (p *Parser) UnitPrice(product *domain.Product) float64 {
	raw := unitPriceCandidate(product)
	if raw == nil {
		return p.fallback(product, ReasonMissing, nil)
	}
	val, err := ParseStrict(*raw)
	if err != nil {
		return p.fallback(product, reasonFor(err), err)
	}
	return val
}

func reasonFor(err error) string {
	if errors.Is(err, ErrMissingPrice) {
		return ReasonMissing
	}
	return ReasonMalformed
}

func unitPriceCandidate(product *domain.Product) *domain.Price {
	if product == nil {
		return nil
	}
	if product.Price.Priced() {
		if price, ok := product.Price.Lookup(UnitLabel); ok {
			return price
		}
	}
	return product.Price.Flat
}

func (p *Parser) fallback(product *domain.Product, reason string, err error) float64 {
	key := ""
	if product != nil {
		key = product.Key
	}
	p.logger.Warn("Using default unit price",
		"tag", TagDefaultPrice,
		"product", key,
		"reason", reason,
		"default", DefaultUnitPrice,
		"err", err,
	)
	p.recorder.DefaultPriceUsed(reason)
	return DefaultUnitPrice
}

// Format renders an amount the way totals and frozen prices are displayed.
func Format(amount float64) string {
	return fmt.Sprintf("%.2f€", amount)
}
