package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

// Pages implements ports.PageSource using an in-memory map.
type Pages struct {
	pages map[string]domain.Page
}

// NewPages creates a PageSource from raw bodies keyed by page ID.
func NewPages(bodies map[string]string) *Pages {
	pages := make(map[string]domain.Page, len(bodies))
	for id, body := range bodies {
		pages[id] = domain.Page{ID: id, Body: body}
	}
	return &Pages{pages: pages}
}

// NewFromPages creates a PageSource from fully described pages.
func NewFromPages(pages ...domain.Page) (*Pages, error) {
	data := make(map[string]domain.Page, len(pages))
	for _, p := range pages {
		if p.ID == "" {
			return nil, fmt.Errorf("page missing ID")
		}
		data[p.ID] = p
	}
	return &Pages{pages: data}, nil
}

// DefaultPages returns the built-in static pages.
func DefaultPages() *Pages {
	p, _ := NewFromPages(
		domain.Page{ID: ports.PageHelp, Title: "Help", Order: 1,
			Body: "Use /reviews to see product reviews, /faqs for FAQs, or navigate via the menu buttons."},
		domain.Page{ID: ports.PageUserGuide, Title: "User Guide", Order: 2,
			Body: "User Guide:\n1) Choose your country\n2) Browse products\n3) Add to cart\n4) Checkout and pay\n5) Receive discreet delivery."},
		domain.Page{ID: ports.PageRefEarn, Title: "Ref & Earn", Order: 3,
			Body: "Referral & Earn:\nShare your unique referral message to earn discounts on future orders."},
		domain.Page{ID: ports.PageCoupon, Title: "Coupon", Order: 4,
			Body: "Coupons:\nGot a coupon? Apply it at checkout by sending it to support (coming soon)."},
		domain.Page{ID: ports.PageFriendlyServices, Title: "Friendly Services", Order: 5,
			Body: "Friendly Services:\nWe provide fast replies, discreet shipping, and helpful support."},
	)
	return p
}

// Page retrieves a page by ID.
func (p *Pages) Page(ctx context.Context, id string) (domain.Page, error) {
	page, ok := p.pages[id]
	if !ok {
		return domain.Page{}, fmt.Errorf("%w: page %s", domain.ErrNotFound, id)
	}
	return page, nil
}

// ListPages returns all available page IDs.
func (p *Pages) ListPages(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(p.pages))
	for id := range p.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}
