package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/kiosk/pkg/catalog"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/pricing"
)

// Report summarizes a catalog check.
type Report struct {
	Categories    int
	Subcategories int
	Products      int
	Pages         []string
	// Issues are problems that do not stop the shop from serving but
	// degrade what customers see.
	Issues []string
}

// OK reports whether the check found no issues.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

func (r *Report) addIssue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

// Validate loads the catalog strictly and checks every price it declares.
// A catalog that cannot be parsed is an error; the shop would serve defaults.
func Validate(ctx context.Context, opts Options) (*Report, error) {
	cat, err := catalog.LoadFile(opts.CatalogPath)
	if err != nil {
		return nil, err
	}

	r := &Report{}
	for _, c := range cat.Categories {
		r.Categories++
		for _, s := range c.Subcategories {
			r.Subcategories++
			for _, p := range s.Products {
				r.Products++
				checkProduct(r, domain.ProductRef{Category: c.Key, Subcategory: s.Key, Product: p.Key}, p)
			}
		}
	}
	for _, pr := range cat.Reviews {
		if pr.Malformed {
			r.addIssue("reviews for %s: not a list", pr.ProductKey)
			continue
		}
		for i, rv := range pr.Reviews {
			if rv.Malformed {
				r.addIssue("reviews for %s: entry %d is malformed", pr.ProductKey, i+1)
			}
		}
	}
	if len(cat.PaymentMethods()) == 0 {
		r.addIssue("settings: no payment methods configured")
	}

	if opts.PagesDir != "" {
		pages, err := buildPages(opts.PagesDir)
		if err != nil {
			return nil, err
		}
		ids, err := pages.ListPages(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pages: %w", err)
		}
		r.Pages = ids
	}
	return r, nil
}

func checkProduct(r *Report, ref domain.ProductRef, p *domain.Product) {
	if p.Price.Flat == nil && !p.Price.Priced() {
		r.addIssue("%s: no price", ref)
	}
	if p.Price.Flat != nil {
		if _, err := pricing.ParseStrict(p.Price.Flat); err != nil {
			r.addIssue("%s: price %q: %v", ref, p.Price.Flat.String(), err)
		}
	}
	for _, q := range p.Price.Quantities {
		if q.Price == nil {
			continue
		}
		if _, err := pricing.ParseStrict(q.Price); err != nil {
			r.addIssue("%s: quantity %s price %q: %v", ref, q.Label, q.Price.String(), err)
		}
	}
}

// PrintReport writes a human readable report.
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Categories: %d, subcategories: %d, products: %d\n", r.Categories, r.Subcategories, r.Products)
	if r.Pages != nil {
		fmt.Fprintf(w, "Pages: %d\n", len(r.Pages))
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  ! %s\n", issue)
	}
	if r.OK() {
		fmt.Fprintln(w, "Catalog is valid! ✅")
	}
}
