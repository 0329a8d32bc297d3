package checkout

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/cart"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

// skipTokens leave the delivery note empty when typed at the note step.
var skipTokens = map[string]bool{
	"none": true,
	"no":   true,
	"skip": true,
}

// IsSkip reports whether text declines the optional note.
func IsSkip(text string) bool {
	return skipTokens[strings.ToLower(strings.TrimSpace(text))]
}

// Result describes what a text input did to the dialogue.
type Result struct {
	// From and To are the dialogue states before and after the input.
	From, To domain.DialogueState
	// Summary is set when the dialogue reaches ready_for_payment.
	Summary *cart.Summary
}

// Advanced reports whether the input moved the dialogue forward.
func (r Result) Advanced() bool {
	return r.From != r.To
}

// Machine is the linear checkout dialogue:
// none -> awaiting_name -> awaiting_address -> awaiting_note -> ready_for_payment -> none.
type Machine struct {
	cart     *cart.Engine
	logger   *slog.Logger
	recorder ports.Recorder
	now      func() time.Time
	newID    func() string
}

// Option configures the Machine.
type Option func(*Machine)

// WithLogger configures a logger for the Machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithRecorder configures the observability sink.
func WithRecorder(r ports.Recorder) Option {
	return func(m *Machine) {
		m.recorder = r
	}
}

// WithClock overrides the time source used to stamp orders.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithIDGenerator overrides how order IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) {
		m.newID = fn
	}
}

// NewMachine creates a checkout Machine that prices orders with the cart engine.
func NewMachine(engine *cart.Engine, opts ...Option) *Machine {
	m := &Machine{
		cart:     engine,
		logger:   logging.NewNop(),
		recorder: ports.NopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts (or restarts) the dialogue with an empty draft.
// It returns the cart summary to show alongside the first prompt.
func (m *Machine) Begin(s *domain.Session) cart.Summary {
	s.Checkout = &domain.CheckoutDraft{}
	s.Dialogue = domain.DialogueAwaitingName
	m.logger.Debug("Checkout started", "session", s.Key)
	return m.cart.Summarize(s)
}

// HandleText consumes free text for the current step.
// Outside an active dialogue it returns domain.ErrNoActiveCheckout.
// Blank name or address input returns a *domain.ValidationError and changes nothing.
// Text received at ready_for_payment does not move the dialogue; only Confirm does.
func (m *Machine) HandleText(s *domain.Session, text string) (Result, error) {
	res := Result{From: s.Dialogue, To: s.Dialogue}
	if !s.Dialogue.Active() {
		return res, domain.ErrNoActiveCheckout
	}
	if s.Checkout == nil {
		s.Checkout = &domain.CheckoutDraft{}
	}
	text = strings.TrimSpace(text)

	switch s.Dialogue {
	case domain.DialogueAwaitingName:
		if text == "" {
			return res, domain.NewValidationError("name", "Please enter your Full Name.")
		}
		s.Checkout.Name = &text
		s.Dialogue = domain.DialogueAwaitingAddress

	case domain.DialogueAwaitingAddress:
		if text == "" {
			return res, domain.NewValidationError("address", "Please enter your Delivery Address.")
		}
		s.Checkout.Address = &text
		s.Dialogue = domain.DialogueAwaitingNote

	case domain.DialogueAwaitingNote:
		if text == "" || IsSkip(text) {
			s.Checkout.Note = nil
		} else {
			s.Checkout.Note = &text
		}
		s.Dialogue = domain.DialogueReadyForPayment
		sum := m.cart.Summarize(s)
		res.Summary = &sum

	case domain.DialogueReadyForPayment:
		// Waiting for a payment selection.
	}

	res.To = s.Dialogue
	return res, nil
}

// Confirm places the order for the chosen payment method. It snapshots the
// cart summary and shipping draft into an OrderRecord, clears the cart and
// resets the dialogue. Outside ready_for_payment it returns
// domain.ErrNoActiveCheckout, and with an empty cart domain.ErrEmptyCart;
// neither changes anything.
func (m *Machine) Confirm(s *domain.Session, method string) (*domain.OrderRecord, error) {
	if s.Dialogue != domain.DialogueReadyForPayment {
		return nil, domain.ErrNoActiveCheckout
	}
	if len(s.Cart) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if _, ok := m.cart.Catalog().PaymentMethod(method); !ok {
		return nil, domain.NewValidationError("payment_method", "Please choose one of the listed payment methods.")
	}

	sum := m.cart.Summarize(s)
	order := domain.OrderRecord{
		ID:            m.newID(),
		Items:         sum.Lines,
		Total:         sum.Total,
		Shipping:      Shipping(s.Checkout),
		PaymentMethod: method,
		PlacedAt:      m.now(),
	}
	s.Orders = append(s.Orders, order)
	m.cart.Clear(s)
	s.Checkout = nil
	s.Dialogue = domain.DialogueNone

	m.logger.Info("Order placed",
		"session", s.Key,
		"order", order.ID,
		"method", method,
		"total", order.Total,
		"items", len(order.Items),
	)
	m.recorder.OrderPlaced(method, order.Total)
	return &order, nil
}

// Cancel discards the draft and resets the dialogue. The cart is kept.
func (m *Machine) Cancel(s *domain.Session) error {
	if !s.Dialogue.Active() {
		return domain.ErrNoActiveCheckout
	}
	s.Checkout = nil
	s.Dialogue = domain.DialogueNone
	m.logger.Debug("Checkout cancelled", "session", s.Key)
	return nil
}

// Shipping freezes a draft into shipping details. Absent name or address
// become empty strings; an absent note stays absent.
func Shipping(d *domain.CheckoutDraft) domain.ShippingDetails {
	var out domain.ShippingDetails
	if d == nil {
		return out
	}
	if d.Name != nil {
		out.Name = *d.Name
	}
	if d.Address != nil {
		out.Address = *d.Address
	}
	if d.Note != nil {
		note := *d.Note
		out.Note = &note
	}
	return out
}
