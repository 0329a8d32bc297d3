package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

// Safe defaults used when the document cannot be loaded.
const (
	DefaultPaymentDestination = "N/A"
	DefaultProductImage       = "https://via.placeholder.com/640x360.png?text=Product"
)

const fence = "```"

// Option configures a load.
type Option func(*loader)

type loader struct {
	source   string
	logger   *slog.Logger
	recorder ports.Recorder
}

// WithLogger configures a logger for the load.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithRecorder reports the load outcome to an observability sink.
func WithRecorder(r ports.Recorder) Option {
	return func(l *loader) {
		l.recorder = r
	}
}

// WithSource names the document in logs and errors.
func WithSource(name string) Option {
	return func(l *loader) {
		l.source = name
	}
}

func newLoader(opts []Option) *loader {
	l := &loader{
		source:   "inline",
		logger:   logging.NewNop(),
		recorder: ports.NopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses a catalog document. It always returns a usable catalog: when
// the document is unreadable the safe-default catalog is returned together
// with the *domain.LoadError that caused it.
func Load(data []byte, opts ...Option) (*domain.Catalog, error) {
	l := newLoader(opts)
	cat, err := parse(data)
	return l.finish(cat, err)
}

// LoadFile reads and parses the catalog document at path.
// A missing or unreadable file degrades the same way as a corrupt one.
func LoadFile(path string, opts ...Option) (*domain.Catalog, error) {
	l := newLoader(append([]Option{WithSource(path)}, opts...))
	data, err := os.ReadFile(path)
	if err != nil {
		return l.finish(nil, err)
	}
	cat, err := parse(data)
	return l.finish(cat, err)
}

func (l *loader) finish(cat *domain.Catalog, err error) (*domain.Catalog, error) {
	if err != nil {
		loadErr := &domain.LoadError{Source: l.source, Err: err}
		l.logger.Error("Failed to load catalog, using safe defaults", "source", l.source, "err", err)
		l.recorder.CatalogLoaded(true)
		return Default(), loadErr
	}
	l.logger.Info("Catalog loaded",
		"source", l.source,
		"categories", len(cat.Categories),
		"reviews", len(cat.Reviews),
	)
	l.recorder.CatalogLoaded(false)
	return cat, nil
}

// Default returns the minimal catalog used in degraded mode.
func Default() *domain.Catalog {
	return &domain.Catalog{
		Settings: domain.Settings{
			Payment: map[string]string{
				"btc":        DefaultPaymentDestination,
				"usdt_trc20": DefaultPaymentDestination,
			},
			Placeholders: domain.Placeholders{ProductImage: DefaultProductImage},
		},
		Countries:  []string{},
		FAQ:        []string{},
		HowItWorks: []string{},
		Reviews:    []domain.ProductReviews{},
		Categories: []*domain.Category{},
		Degraded:   true,
	}
}

// StripFences removes a leading fence line (e.g. "```json") and a trailing
// fence from a document pasted out of a Markdown block.
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, fence) {
		if i := strings.IndexByte(raw, '\n'); i != -1 {
			raw = raw[i+1:]
		} else {
			raw = strings.TrimPrefix(raw, fence)
		}
	}
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, fence) {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, fence))
	}
	return raw
}

var errNotMapping = errors.New("expected a mapping")

// parse reads a JSON or YAML document into a yaml.Node tree so that menus
// keep document order. JSON objects go through encoding/json, which accepts
// the escapes YAML rejects (`\/` and surrogate pairs).
func parse(data []byte) (*domain.Catalog, error) {
	body := StripFences(string(data))
	if body == "" {
		return nil, errors.New("empty document")
	}

	var root *yaml.Node
	if strings.HasPrefix(body, "{") {
		n, err := parseJSON([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		root = n
	} else {
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
			return nil, errors.New("empty document")
		}
		root = doc.Content[0]
	}

	pairs, err := mappingPairs(root, "document")
	if err != nil {
		return nil, err
	}

	cat := &domain.Catalog{
		Settings: domain.Settings{
			Payment:      map[string]string{},
			Placeholders: domain.Placeholders{ProductImage: DefaultProductImage},
		},
		Countries:  []string{},
		FAQ:        []string{},
		HowItWorks: []string{},
		Reviews:    []domain.ProductReviews{},
		Categories: []*domain.Category{},
	}

	for _, p := range pairs {
		switch p.key {
		case "bot":
			err = decodeSettings(p.value, &cat.Settings)
		case "countries":
			err = decodeStrings(p.value, p.key, &cat.Countries)
		case "faq":
			err = decodeStrings(p.value, p.key, &cat.FAQ)
		case "how_it_works":
			err = decodeStrings(p.value, p.key, &cat.HowItWorks)
		case "reviews":
			cat.Reviews, err = parseReviews(p.value)
		case "categories":
			cat.Categories, err = parseCategories(p.value)
		}
		if err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func parseJSON(body []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	root, err := jsonNode(dec, body)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after document (line %d)", lineAt(body, dec.InputOffset()))
	}
	return root, nil
}

// jsonNode reads one JSON value from dec as a yaml.Node.
func jsonNode(dec *json.Decoder, body []byte) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	line := lineAt(body, dec.InputOffset())

	switch v := tok.(type) {
	case json.Delim:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: line}
		if v == '[' {
			n.Kind, n.Tag = yaml.SequenceNode, "!!seq"
		}
		for dec.More() {
			if n.Kind == yaml.MappingNode {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, stringNode(key.(string), lineAt(body, dec.InputOffset())))
			}
			child, err := jsonNode(dec, body)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		// Closing delimiter.
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return n, nil
	case string:
		return stringNode(v, line), nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(v.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String(), Line: line}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v), Line: line}, nil
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null", Line: line}, nil
	}
}

func stringNode(s string, line int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s, Line: line}
}

func lineAt(body []byte, offset int64) int {
	if offset > int64(len(body)) {
		offset = int64(len(body))
	}
	return bytes.Count(body[:offset], []byte{'\n'}) + 1
}

type pair struct {
	key   string
	value *yaml.Node
}

// mappingPairs returns the key/value pairs of a mapping node in document order.
func mappingPairs(n *yaml.Node, what string) ([]pair, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s at line %d", errNotMapping, what, n.Line)
	}
	seen := make(map[string]bool, len(n.Content)/2)
	pairs := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if seen[key] {
			return nil, fmt.Errorf("duplicate key %q in %s at line %d", key, what, n.Content[i].Line)
		}
		seen[key] = true
		pairs = append(pairs, pair{key: key, value: n.Content[i+1]})
	}
	return pairs, nil
}

func decodeSettings(n *yaml.Node, out *domain.Settings) error {
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return fmt.Errorf("invalid bot settings: %w", err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid bot settings: %w", err)
	}
	if out.Payment == nil {
		out.Payment = map[string]string{}
	}
	if out.Placeholders.ProductImage == "" {
		out.Placeholders.ProductImage = DefaultProductImage
	}
	return nil
}

func decodeStrings(n *yaml.Node, what string, out *[]string) error {
	var list []string
	if err := n.Decode(&list); err != nil {
		return fmt.Errorf("invalid %s: %w", what, err)
	}
	if list != nil {
		*out = list
	}
	return nil
}

func parseCategories(n *yaml.Node) ([]*domain.Category, error) {
	pairs, err := mappingPairs(n, "categories")
	if err != nil {
		return nil, err
	}
	categories := make([]*domain.Category, 0, len(pairs))
	for _, p := range pairs {
		fields, err := mappingPairs(p.value, "category "+p.key)
		if err != nil {
			return nil, err
		}
		cat := &domain.Category{Key: p.key, Name: p.key, Subcategories: []*domain.Subcategory{}}
		for _, f := range fields {
			switch f.key {
			case "name":
				cat.Name = f.value.Value
			case "subcategories":
				cat.Subcategories, err = parseSubcategories(f.value, p.key)
				if err != nil {
					return nil, err
				}
			}
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

func parseSubcategories(n *yaml.Node, category string) ([]*domain.Subcategory, error) {
	pairs, err := mappingPairs(n, "subcategories of "+category)
	if err != nil {
		return nil, err
	}
	subs := make([]*domain.Subcategory, 0, len(pairs))
	for _, p := range pairs {
		path := category + "/" + p.key
		fields, err := mappingPairs(p.value, "subcategory "+path)
		if err != nil {
			return nil, err
		}
		sub := &domain.Subcategory{Key: p.key, Name: p.key, Products: []*domain.Product{}}
		for _, f := range fields {
			switch f.key {
			case "name":
				sub.Name = f.value.Value
			case "products":
				sub.Products, err = parseProducts(f.value, path)
				if err != nil {
					return nil, err
				}
			}
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func parseProducts(n *yaml.Node, path string) ([]*domain.Product, error) {
	pairs, err := mappingPairs(n, "products of "+path)
	if err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(pairs))
	for _, p := range pairs {
		where := path + "/" + p.key
		fields, err := mappingPairs(p.value, "product "+where)
		if err != nil {
			return nil, err
		}
		prod := &domain.Product{Key: p.key, Name: p.key}
		for _, f := range fields {
			switch f.key {
			case "name":
				prod.Name = f.value.Value
			case "description":
				prod.Description = f.value.Value
			case "image":
				prod.Image = f.value.Value
			case "price":
				prod.Price.Flat, err = scalarPrice(f.value, where)
			case "quantities":
				prod.Price.Quantities, err = parseQuantities(f.value, where)
			}
			if err != nil {
				return nil, err
			}
		}
		products = append(products, prod)
	}
	return products, nil
}

func scalarPrice(n *yaml.Node, where string) (*domain.Price, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("price of %s must be a scalar (line %d)", where, n.Line)
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("price of %s: %w", where, err)
	}
	return &domain.Price{Raw: v}, nil
}

// parseQuantities accepts either a label -> price mapping or a bare list of labels.
func parseQuantities(n *yaml.Node, where string) ([]domain.QuantityOption, error) {
	switch n.Kind {
	case yaml.MappingNode:
		pairs, err := mappingPairs(n, "quantities of "+where)
		if err != nil {
			return nil, err
		}
		opts := make([]domain.QuantityOption, 0, len(pairs))
		for _, p := range pairs {
			price, err := scalarPrice(p.value, where+" quantity "+p.key)
			if err != nil {
				return nil, err
			}
			opts = append(opts, domain.QuantityOption{Label: p.key, Price: price})
		}
		return opts, nil
	case yaml.SequenceNode:
		opts := make([]domain.QuantityOption, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("quantity label of %s must be a scalar (line %d)", where, item.Line)
			}
			opts = append(opts, domain.QuantityOption{Label: item.Value})
		}
		return opts, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("quantities of %s must be a mapping or a list (line %d)", where, n.Line)
}

// parseReviews is lenient: malformed entries are kept and flagged so the
// reviews page can show a placeholder for them.
func parseReviews(n *yaml.Node) ([]domain.ProductReviews, error) {
	pairs, err := mappingPairs(n, "reviews")
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProductReviews, 0, len(pairs))
	for _, p := range pairs {
		entry := domain.ProductReviews{ProductKey: p.key}
		if p.value.Kind != yaml.SequenceNode {
			entry.Malformed = true
			out = append(out, entry)
			continue
		}
		for _, item := range p.value.Content {
			entry.Reviews = append(entry.Reviews, parseReview(item))
		}
		out = append(out, entry)
	}
	return out, nil
}

func parseReview(n *yaml.Node) domain.Review {
	var raw struct {
		Stars *int    `yaml:"stars"`
		Text  *string `yaml:"text"`
	}
	if n.Kind != yaml.MappingNode || n.Decode(&raw) != nil || raw.Stars == nil || raw.Text == nil {
		return domain.Review{Malformed: true}
	}
	return domain.Review{Stars: *raw.Stars, Text: *raw.Text}
}
