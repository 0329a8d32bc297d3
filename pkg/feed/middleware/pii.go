package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

// Mask replaces values considered personal data.
const Mask = "***"

// DefaultPIIPatterns match the shipping fields and detail keys that carry
// personal data.
var DefaultPIIPatterns = []string{`^name$`, `address`, `note`}

type piiMiddleware struct {
	next     ports.OrderPublisher
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks detail values and shipping
// fields whose key matches one of the patterns. Shipping fields are matched by
// the keys "name", "address" and "note".
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.OrderPublisher) ports.OrderPublisher {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Publish(ctx context.Context, event domain.FeedEvent) error {
	// The caller keeps its own copy untouched.
	if event.Details != nil {
		details := make(map[string]string, len(event.Details))
		for k, v := range event.Details {
			if m.matches(k) {
				v = Mask
			}
			details[k] = v
		}
		event.Details = details
	}

	if event.Order != nil {
		order := *event.Order
		order.Items = append([]string(nil), order.Items...)
		m.maskShipping(&order.Shipping)
		event.Order = &order
	}

	return m.next.Publish(ctx, event)
}

func (m *piiMiddleware) maskShipping(s *domain.ShippingDetails) {
	if s.Name != "" && m.matches("name") {
		s.Name = Mask
	}
	if s.Address != "" && m.matches("address") {
		s.Address = Mask
	}
	if s.Note != nil && m.matches("note") {
		masked := Mask
		s.Note = &masked
	}
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
