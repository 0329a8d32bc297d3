package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Catalog is the read-only document the storefront is built from.
// It is immutable after load; consumers must not modify it.
type Catalog struct {
	Settings   Settings
	Countries  []string
	FAQ        []string
	HowItWorks []string
	Reviews    []ProductReviews
	Categories []*Category

	// Degraded is set when the source could not be parsed and safe defaults are in use.
	Degraded bool
}

// Node is any addressable level of the catalog hierarchy.
type Node interface {
	NodeKey() string
	NodeName() string
}

// Category returns the category with the given key.
func (c *Catalog) Category(key string) (*Category, error) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat, nil
		}
	}
	return nil, fmt.Errorf("%w: category %q", ErrNotFound, key)
}

// Subcategory resolves a category/subcategory path.
func (c *Catalog) Subcategory(category, subcategory string) (*Subcategory, error) {
	cat, err := c.Category(category)
	if err != nil {
		return nil, err
	}
	for _, sub := range cat.Subcategories {
		if sub.Key == subcategory {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("%w: subcategory %q in %q", ErrNotFound, subcategory, category)
}

// Product resolves a full product path. Any missing level yields ErrNotFound.
func (c *Catalog) Product(ref ProductRef) (*Product, error) {
	sub, err := c.Subcategory(ref.Category, ref.Subcategory)
	if err != nil {
		return nil, err
	}
	for _, p := range sub.Products {
		if p.Key == ref.Product {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: product %q in %s/%s", ErrNotFound, ref.Product, ref.Category, ref.Subcategory)
}

// Resolve walks one to three keys (category, subcategory, product) and
// returns the deepest node. It never returns a partially resolved node.
func (c *Catalog) Resolve(keys ...string) (Node, error) {
	var (
		node Node
		err  error
	)
	switch len(keys) {
	case 1:
		var cat *Category
		if cat, err = c.Category(keys[0]); err == nil {
			node = cat
		}
	case 2:
		var sub *Subcategory
		if sub, err = c.Subcategory(keys[0], keys[1]); err == nil {
			node = sub
		}
	case 3:
		var p *Product
		if p, err = c.Product(ProductRef{Category: keys[0], Subcategory: keys[1], Product: keys[2]}); err == nil {
			node = p
		}
	default:
		err = fmt.Errorf("%w: invalid path %v", ErrNotFound, keys)
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

// PaymentMethods lists the configured payment destinations ordered by code.
func (c *Catalog) PaymentMethods() []PaymentMethod {
	codes := make([]string, 0, len(c.Settings.Payment))
	for code := range c.Settings.Payment {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	methods := make([]PaymentMethod, 0, len(codes))
	for _, code := range codes {
		methods = append(methods, PaymentMethod{
			Code:        code,
			Label:       PaymentLabel(code),
			Destination: c.Settings.Payment[code],
		})
	}
	return methods
}

// PaymentMethod looks up a payment destination by code.
func (c *Catalog) PaymentMethod(code string) (PaymentMethod, bool) {
	dest, ok := c.Settings.Payment[code]
	if !ok {
		return PaymentMethod{}, false
	}
	return PaymentMethod{Code: code, Label: PaymentLabel(code), Destination: dest}, true
}

// PaymentLabel turns a method code such as "usdt_trc20" into "USDT TRC20".
func PaymentLabel(code string) string {
	return strings.ToUpper(strings.ReplaceAll(code, "_", " "))
}

// Settings holds the "bot" section of the catalog document.
type Settings struct {
	Payment      map[string]string `mapstructure:"payment"`
	Placeholders Placeholders      `mapstructure:"placeholders"`
}

// Placeholders lists fallback media references.
type Placeholders struct {
	ProductImage string `mapstructure:"product_image"`
}

// Category is the top level of the catalog hierarchy.
type Category struct {
	Key           string
	Name          string
	Subcategories []*Subcategory
}

func (c *Category) NodeKey() string  { return c.Key }
func (c *Category) NodeName() string { return c.Name }

// Subcategory groups products inside a Category.
type Subcategory struct {
	Key      string
	Name     string
	Products []*Product
}

func (s *Subcategory) NodeKey() string  { return s.Key }
func (s *Subcategory) NodeName() string { return s.Name }

// Product is a sellable item with its price options.
type Product struct {
	Key         string
	Name        string
	Description string
	Image       string
	Price       PriceOptions
}

func (p *Product) NodeKey() string  { return p.Key }
func (p *Product) NodeName() string { return p.Name }

// PriceOptions is either a single scalar price or an ordered mapping
// from quantity label to price. Both may be present in a document.
type PriceOptions struct {
	// Flat is the product level "price" field, if any.
	Flat *Price
	// Quantities preserves document order of the quantity labels.
	Quantities []QuantityOption
}

// QuantityOption is one selectable quantity label.
// Price is nil when the document lists labels without prices.
type QuantityOption struct {
	Label string
	Price *Price
}

// Lookup returns the price for the quantity label, if priced.
func (p PriceOptions) Lookup(label string) (*Price, bool) {
	for _, q := range p.Quantities {
		if q.Label == label && q.Price != nil {
			return q.Price, true
		}
	}
	return nil, false
}

// HasLabel reports whether the label is one of the product's quantity options.
func (p PriceOptions) HasLabel(label string) bool {
	for _, q := range p.Quantities {
		if q.Label == label {
			return true
		}
	}
	return false
}

// Priced reports whether the quantity options carry prices (a label -> price map)
// rather than bare labels.
func (p PriceOptions) Priced() bool {
	for _, q := range p.Quantities {
		if q.Price != nil {
			return true
		}
	}
	return false
}

// Price is a raw price value as written in the document.
// Raw is a number (int, float64) or a string such as "12,500€/unit".
type Price struct {
	Raw any
}

// String returns the price as it should be displayed.
func (p Price) String() string {
	switch v := p.Raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ProductReviews groups the reviews listed under one product key.
type ProductReviews struct {
	ProductKey string
	Reviews    []Review
	// Malformed is set when the entry was not a list of reviews.
	Malformed bool
}

// Review is a single star rating with text.
type Review struct {
	Stars     int
	Text      string
	Malformed bool
}

// PaymentMethod is a payment destination listed in the catalog settings.
type PaymentMethod struct {
	Code        string
	Label       string
	Destination string
}

// ProductRef identifies a product by its full catalog path.
type ProductRef struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Product     string `json:"product"`
}

func (r ProductRef) String() string {
	return r.Category + "/" + r.Subcategory + "/" + r.Product
}

// Page is a static content page such as the user guide.
type Page struct {
	ID    string
	Title string
	Body  string
	Order int
}
