package ports

import (
	"context"

	"github.com/aretw0/kiosk/pkg/domain"
)

// Well known page IDs.
const (
	PageHelp             = "help"
	PageUserGuide        = "user_guide"
	PageRefEarn          = "ref_earn"
	PageCoupon           = "coupon"
	PageFriendlyServices = "friendly_services"
)

// PageSource provides static content pages by ID.
type PageSource interface {
	// Page returns the page with the given ID.
	// Returns domain.ErrNotFound if the page does not exist.
	Page(ctx context.Context, id string) (domain.Page, error)

	// ListPages returns the IDs of all available pages.
	ListPages(ctx context.Context) ([]string, error)
}
