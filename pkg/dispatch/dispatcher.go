package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/cart"
	"github.com/aretw0/kiosk/pkg/checkout"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
	"github.com/aretw0/kiosk/pkg/session"
)

// Activity names written to the session log and the feed.
const (
	ActivityStart           = "start"
	ActivityCountrySelected = "country_selected"
	ActivityViewReviews     = "view_reviews"
	ActivityViewFAQs        = "view_faqs"
	ActivityAddToCart       = "add_to_cart"
	ActivityViewCart        = "view_cart"
	ActivityClearCart       = "clear_cart"
	ActivityStartCheckout   = "start_checkout"
	ActivityCancelCheckout  = "cancel_checkout"
	ActivityChoosePayment   = "choose_payment"
	ActivityConfirmPayment  = "confirm_payment"
)

// Dispatcher routes inbound events to the cart engine and the checkout
// machine and returns a view-model. It owns no state: everything it touches
// lives in the session, mutated under the identity's lock.
type Dispatcher struct {
	catalog  *domain.Catalog
	sessions *session.Manager
	cart     *cart.Engine
	checkout *checkout.Machine

	pages     ports.PageSource
	publisher ports.OrderPublisher
	logger    *slog.Logger
	recorder  ports.Recorder
	now       func() time.Time
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger configures a logger for the Dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRecorder configures the observability sink.
func WithRecorder(r ports.Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithPages configures where static pages are read from.
func WithPages(p ports.PageSource) Option {
	return func(d *Dispatcher) {
		d.pages = p
	}
}

// WithPublisher configures where activity and orders are published.
func WithPublisher(p ports.OrderPublisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

// WithClock overrides the time source used for the activity log.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a Dispatcher. The cart engine and checkout machine must share
// the catalog.
func New(sessions *session.Manager, engine *cart.Engine, machine *checkout.Machine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog:  engine.Catalog(),
		sessions: sessions,
		cart:     engine,
		checkout: machine,
		logger:   logging.NewNop(),
		recorder: ports.NopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// turn carries the per-event scratch data.
type turn struct {
	ctx  context.Context
	s    *domain.Session
	feed []domain.FeedEvent
	now  time.Time
}

func (d *Dispatcher) record(t *turn, action string, details map[string]string) {
	t.s.Record(t.now, action, details)
	t.feed = append(t.feed, domain.FeedEvent{
		Type:       domain.FeedActivity,
		SessionKey: t.s.Key,
		Timestamp:  t.now,
		Action:     action,
		Details:    details,
	})
	d.logger.Info("User action", "session", t.s.Key, "action", action, "details", details)
}

// Dispatch handles one event for its identity. Events for the same identity
// are processed one at a time. The returned error is reserved for session
// store failures; user mistakes come back as views.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) (*domain.View, error) {
	d.recorder.EventHandled(ev.Kind)

	var (
		view *domain.View
		t    *turn
	)
	_, err := d.sessions.Update(ctx, ev.Identity, func(s *domain.Session) error {
		t = &turn{ctx: ctx, s: s, now: d.now()}
		view = d.handle(t, ev)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to handle event", "session", ev.Identity.Key(), "kind", ev.Kind, "err", err)
		return nil, fmt.Errorf("failed to handle %s event: %w", ev.Kind, err)
	}

	// Published after the identity lock is released.
	d.publish(ctx, t.feed)
	return view, nil
}

func (d *Dispatcher) publish(ctx context.Context, events []domain.FeedEvent) {
	if d.publisher == nil {
		return
	}
	for _, e := range events {
		if err := d.publisher.Publish(ctx, e); err != nil {
			d.logger.Warn("Failed to publish feed event", "session", e.SessionKey, "type", e.Type, "err", err)
		}
	}
}

func (d *Dispatcher) handle(t *turn, ev domain.Event) *domain.View {
	switch ev.Kind {
	case domain.EventCommand:
		return d.handleCommand(t, ev.Command)
	case domain.EventSelection:
		return d.handleSelection(t, ev.Action)
	case domain.EventText:
		return d.handleText(t, ev.Text)
	default:
		d.logger.Warn("Unhandled event kind", "session", t.s.Key, "kind", ev.Kind)
		return menuView(t.s, TextUnknownAction)
	}
}

func (d *Dispatcher) handleCommand(t *turn, command string) *domain.View {
	switch strings.TrimPrefix(strings.TrimSpace(command), "/") {
	case domain.CommandStart:
		d.record(t, ActivityStart, nil)
		if len(d.catalog.Countries) == 0 {
			return menuView(t.s, TextMainMenu)
		}
		return countryView(d.catalog)
	case domain.CommandReviews:
		d.record(t, ActivityViewReviews, nil)
		return menuView(t.s, reviewsText(d.catalog))
	case domain.CommandFAQs:
		d.record(t, ActivityViewFAQs, nil)
		return joinedView(t.s, d.catalog.FAQ)
	case domain.CommandHelp:
		return &domain.View{Text: TextHelpCommand}
	default:
		d.logger.Warn("Unhandled command", "session", t.s.Key, "command", command)
		return menuView(t.s, TextUnknownAction)
	}
}

func (d *Dispatcher) handleSelection(t *turn, a domain.Action) *domain.View {
	s := t.s
	if a.Kind != domain.ActionCustomQuantity {
		// Navigating away abandons a pending custom quantity.
		s.PendingCustomQuantity = nil
	}

	switch a.Kind {
	case domain.ActionMainMenu:
		return menuView(s, TextMainMenu)

	case domain.ActionSelectCountry:
		if !contains(d.catalog.Countries, a.Country) {
			return d.unknown(t, a)
		}
		s.Country = a.Country
		d.record(t, ActivityCountrySelected, map[string]string{"country": a.Country})
		return menuView(s, fmt.Sprintf("✅ You selected %s.\nHere is the main menu:", a.Country))

	case domain.ActionHowItWorks:
		return joinedView(s, d.catalog.HowItWorks)

	case domain.ActionFAQs:
		return joinedView(s, d.catalog.FAQ)

	case domain.ActionReviews:
		d.record(t, ActivityViewReviews, nil)
		return menuView(s, reviewsText(d.catalog))

	case domain.ActionHelp:
		return d.page(t, ports.PageHelp)
	case domain.ActionUserGuide:
		return d.page(t, ports.PageUserGuide)
	case domain.ActionRefEarn:
		return d.page(t, ports.PageRefEarn)
	case domain.ActionCoupon:
		return d.page(t, ports.PageCoupon)
	case domain.ActionFriendlyServices:
		return d.page(t, ports.PageFriendlyServices)

	case domain.ActionProducts:
		return categoriesView(d.catalog)

	case domain.ActionViewCategory:
		cat, err := d.catalog.Category(a.Category)
		if err != nil {
			return d.unavailable(t, err)
		}
		return subcategoriesView(cat)

	case domain.ActionViewSubcategory:
		sub, err := d.catalog.Subcategory(a.Category, a.Subcategory)
		if err != nil {
			return d.unavailable(t, err)
		}
		return productsView(a.Category, sub)

	case domain.ActionViewProduct:
		p, err := d.catalog.Product(a.Ref())
		if err != nil {
			return d.unavailable(t, err)
		}
		return productCard(d.catalog, a.Ref(), p)

	case domain.ActionAddQuantity:
		return d.addQuantity(t, a)

	case domain.ActionCustomQuantity:
		p, err := d.catalog.Product(a.Ref())
		if err != nil {
			s.PendingCustomQuantity = nil
			return d.unavailable(t, err)
		}
		target := a.Ref()
		s.PendingCustomQuantity = &target
		return &domain.View{Text: fmt.Sprintf("%s\n(%s)", TextCustomQuantity, p.Name)}

	case domain.ActionViewCart:
		d.record(t, ActivityViewCart, nil)
		if len(s.Cart) == 0 {
			return menuView(s, TextEmptyCart)
		}
		return cartView(d.cart.Summarize(s))

	case domain.ActionClearCart:
		d.cart.Clear(s)
		d.record(t, ActivityClearCart, nil)
		return menuView(s, TextCartCleared)

	case domain.ActionCheckout:
		if len(s.Cart) == 0 {
			return menuView(s, TextEmptyCart)
		}
		sum := d.checkout.Begin(s)
		d.record(t, ActivityStartCheckout, nil)
		return &domain.View{
			Text:    cartText("🧾 Checkout Summary:", sum) + "\n\n" + TextAskName,
			Actions: []domain.ActionRef{cancelCheckout},
		}

	case domain.ActionCancelCheckout:
		if err := d.checkout.Cancel(s); err != nil {
			v := menuView(s, TextNoCheckout)
			v.Ignored = true
			return v
		}
		d.record(t, ActivityCancelCheckout, nil)
		return menuView(s, TextCancelled)

	case domain.ActionChoosePayment:
		return d.choosePayment(t, a.Method)

	case domain.ActionConfirmPayment:
		return d.confirmPayment(t, a.Method)

	case domain.ActionViewOrders:
		return ordersView(s)

	default:
		return d.unknown(t, a)
	}
}

func (d *Dispatcher) addQuantity(t *turn, a domain.Action) *domain.View {
	p, err := d.cart.AddCatalogItem(t.s, a.Ref(), a.Quantity)
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return menuView(t.s, "❌ "+vErr.Message)
	case err != nil:
		return d.unavailable(t, err)
	}
	d.record(t, ActivityAddToCart, map[string]string{"product_key": a.Product, "qty": a.Quantity})
	return menuView(t.s, fmt.Sprintf("✅ Added %s of %s to your cart!", a.Quantity, p.Name))
}

func (d *Dispatcher) choosePayment(t *turn, code string) *domain.View {
	if t.s.Dialogue != domain.DialogueReadyForPayment {
		v := menuView(t.s, TextNoPayment)
		v.Ignored = true
		return v
	}
	method, ok := d.catalog.PaymentMethod(code)
	if !ok {
		return d.unknown(t, domain.Action{Kind: domain.ActionChoosePayment, Method: code})
	}
	d.record(t, ActivityChoosePayment, map[string]string{"method": code})
	return paymentView(method)
}

func (d *Dispatcher) confirmPayment(t *turn, code string) *domain.View {
	s := t.s
	order, err := d.checkout.Confirm(s, code)
	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNoActiveCheckout):
		v := menuView(s, TextNoPayment)
		v.Ignored = true
		return v
	case errors.Is(err, domain.ErrEmptyCart):
		// The dialogue stays ready so the user can add products and pay.
		return menuView(s, TextEmptyCart)
	case errors.As(err, &vErr):
		return &domain.View{Text: "❌ " + vErr.Message, Actions: paymentActions(d.catalog)}
	case err != nil:
		d.logger.Error("Failed to confirm payment", "session", s.Key, "err", err)
		return menuView(s, TextUnknownAction)
	}

	d.record(t, ActivityConfirmPayment, map[string]string{
		"method": code,
		"total":  fmt.Sprintf("%.2f", order.Total),
		"order":  order.ID,
	})
	t.feed = append(t.feed, domain.FeedEvent{
		Type:       domain.FeedOrderPlaced,
		SessionKey: s.Key,
		Timestamp:  t.now,
		Order:      order,
	})
	return menuView(s, "✅ Payment confirmed and order placed.\n\n"+OrderText(*order))
}

// handleText routes free text. The checkout dialogue has priority over a
// pending custom quantity; text with neither active is ignored.
func (d *Dispatcher) handleText(t *turn, text string) *domain.View {
	s := t.s
	switch {
	case s.Dialogue.Active():
		return d.checkoutText(t, text)
	case s.PendingCustomQuantity != nil:
		return d.customQuantity(t, text)
	default:
		d.logger.Debug("No known input state, ignoring text", "session", s.Key)
		return &domain.View{Ignored: true}
	}
}

func (d *Dispatcher) checkoutText(t *turn, text string) *domain.View {
	s := t.s
	res, err := d.checkout.HandleText(s, text)
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return &domain.View{Text: "❌ " + vErr.Message, Actions: []domain.ActionRef{cancelCheckout}}
	}
	if err != nil {
		return &domain.View{Ignored: true}
	}

	switch res.To {
	case domain.DialogueAwaitingAddress:
		return &domain.View{Text: TextAskAddress, Actions: []domain.ActionRef{cancelCheckout}}
	case domain.DialogueAwaitingNote:
		return &domain.View{Text: TextAskNote, Actions: []domain.ActionRef{cancelCheckout}}
	case domain.DialogueReadyForPayment:
		if res.Summary == nil {
			return &domain.View{Text: TextRepromptPayment, Actions: paymentActions(d.catalog)}
		}
		return readyForPaymentView(d.catalog, s, *res.Summary)
	default:
		return &domain.View{Ignored: true}
	}
}

func (d *Dispatcher) customQuantity(t *turn, text string) *domain.View {
	s := t.s
	target := *s.PendingCustomQuantity
	entry, err := d.cart.AddCustomQuantity(s, target, text)
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		// Marker stays so the user can retry.
		return &domain.View{Text: "❌ " + vErr.Message}
	case err != nil:
		s.PendingCustomQuantity = nil
		return d.unavailable(t, err)
	}

	s.PendingCustomQuantity = nil
	d.record(t, ActivityAddToCart, map[string]string{
		"product": entry.ProductName,
		"qty":     fmt.Sprint(entry.Quantity),
		"price":   entry.FrozenPrice,
	})
	return menuView(s, fmt.Sprintf("✅ %d of %s added to cart!\n\nYou can continue shopping or view your cart.", entry.Quantity, entry.ProductName))
}

func (d *Dispatcher) page(t *turn, id string) *domain.View {
	if d.pages == nil {
		return menuView(t.s, TextPageUnavailable)
	}
	p, err := d.pages.Page(t.ctx, id)
	if err != nil {
		d.logger.Warn("Failed to load page", "page", id, "err", err)
		return menuView(t.s, TextPageUnavailable)
	}
	return menuView(t.s, p.Body)
}

func (d *Dispatcher) unavailable(t *turn, err error) *domain.View {
	d.logger.Warn("Catalog path did not resolve", "session", t.s.Key, "err", err)
	return menuView(t.s, TextUnavailable)
}

func (d *Dispatcher) unknown(t *turn, a domain.Action) *domain.View {
	d.logger.Warn("Unhandled action", "session", t.s.Key, "action", a.Encode())
	return menuView(t.s, TextUnknownAction)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ParseSelection turns a wire-encoded action into a selection event.
// Undecodable data still yields an event, which the Dispatcher answers with
// the unknown action view.
func ParseSelection(id domain.Identity, data string) domain.Event {
	a, err := domain.DecodeAction(data)
	if err != nil {
		a = domain.Action{Kind: domain.ActionUnknown}
	}
	return domain.Event{Identity: id, Kind: domain.EventSelection, Action: a}
}
