package domain

import (
	"time"
)

// DialogueState is the current step of the checkout conversation.
type DialogueState string

const (
	DialogueNone            DialogueState = "none"
	DialogueAwaitingName    DialogueState = "awaiting_name"
	DialogueAwaitingAddress DialogueState = "awaiting_address"
	DialogueAwaitingNote    DialogueState = "awaiting_note"
	DialogueReadyForPayment DialogueState = "ready_for_payment"
)

// Active reports whether a checkout dialogue is in progress.
func (d DialogueState) Active() bool {
	return d != "" && d != DialogueNone
}

// CartEntryKind tags the two shapes of CartEntry.
type CartEntryKind string

const (
	// EntryCatalog is priced by resolving the catalog path at display time.
	EntryCatalog CartEntryKind = "catalog"
	// EntryPrecomputed carries a price frozen when it was added.
	EntryPrecomputed CartEntryKind = "precomputed"
)

// CartEntry is one line item in a cart.
type CartEntry struct {
	Kind CartEntryKind `json:"kind"`

	// Catalog-backed fields.
	Ref           ProductRef `json:"ref,omitempty"`
	QuantityLabel string     `json:"quantity_label,omitempty"`

	// Precomputed fields.
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	FrozenPrice string `json:"frozen_price,omitempty"`
}

// NewCatalogEntry creates a catalog-backed entry. An empty label means
// "resolve at display time" against the flat price.
func NewCatalogEntry(ref ProductRef, label string) CartEntry {
	return CartEntry{Kind: EntryCatalog, Ref: ref, QuantityLabel: label}
}

// NewPrecomputedEntry creates an entry whose price never changes afterwards.
func NewPrecomputedEntry(name string, quantity int, price string) CartEntry {
	return CartEntry{Kind: EntryPrecomputed, ProductName: name, Quantity: quantity, FrozenPrice: price}
}

// CheckoutDraft collects shipping fields while the dialogue advances.
// A nil field is absent.
type CheckoutDraft struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Note    *string `json:"note,omitempty"`
}

// ShippingDetails is the frozen copy of a draft stored on an order.
type ShippingDetails struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Note    *string `json:"note,omitempty"`
}

// OrderRecord is an immutable snapshot of a placed order.
type OrderRecord struct {
	ID            string          `json:"id"`
	Items         []string        `json:"items"`
	Total         float64         `json:"total"`
	Shipping      ShippingDetails `json:"shipping"`
	PaymentMethod string          `json:"payment_method"`
	PlacedAt      time.Time       `json:"placed_at"`
}

// ActivityRecord is an entry of the per-session action log.
type ActivityRecord struct {
	Time    time.Time         `json:"time"`
	Action  string            `json:"action"`
	Details map[string]string `json:"details,omitempty"`
}

// Session is all mutable per-user state for the lifetime of the process.
type Session struct {
	Key         string    `json:"key"`
	UserID      int64     `json:"user_id,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	StartedAt   time.Time `json:"started_at"`

	// Country is navigation scratch data picked on /start.
	Country string `json:"country,omitempty"`

	Cart     []CartEntry    `json:"cart"`
	Orders   []OrderRecord  `json:"orders"`
	Checkout *CheckoutDraft `json:"checkout,omitempty"`
	Dialogue DialogueState  `json:"dialogue"`

	// PendingCustomQuantity marks the product waiting for a typed quantity.
	PendingCustomQuantity *ProductRef `json:"pending_custom_quantity,omitempty"`

	Activity []ActivityRecord `json:"activity,omitempty"`
}

// NewSession creates an empty session for the identity.
func NewSession(id Identity, now time.Time) *Session {
	return &Session{
		Key:         id.Key(),
		UserID:      id.UserID,
		DisplayName: id.DisplayName(),
		StartedAt:   now,
		Cart:        []CartEntry{},
		Orders:      []OrderRecord{},
		Dialogue:    DialogueNone,
	}
}

// Record appends an entry to the activity log.
func (s *Session) Record(now time.Time, action string, details map[string]string) {
	s.Activity = append(s.Activity, ActivityRecord{Time: now, Action: action, Details: details})
}

// Clone returns a deep copy so stores never share memory with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Cart = append([]CartEntry{}, s.Cart...)
	c.Orders = make([]OrderRecord, len(s.Orders))
	for i, o := range s.Orders {
		o.Items = append([]string{}, o.Items...)
		o.Shipping.Note = cloneString(o.Shipping.Note)
		c.Orders[i] = o
	}
	if s.Checkout != nil {
		c.Checkout = &CheckoutDraft{
			Name:    cloneString(s.Checkout.Name),
			Address: cloneString(s.Checkout.Address),
			Note:    cloneString(s.Checkout.Note),
		}
	}
	if s.PendingCustomQuantity != nil {
		ref := *s.PendingCustomQuantity
		c.PendingCustomQuantity = &ref
	}
	if s.Activity != nil {
		c.Activity = make([]ActivityRecord, len(s.Activity))
		for i, a := range s.Activity {
			if a.Details != nil {
				d := make(map[string]string, len(a.Details))
				for k, v := range a.Details {
					d[k] = v
				}
				a.Details = d
			}
			c.Activity[i] = a
		}
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
