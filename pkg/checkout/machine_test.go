package checkout_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk/internal/testutils"
	"github.com/aretw0/kiosk/pkg/cart"
	"github.com/aretw0/kiosk/pkg/catalog"
	"github.com/aretw0/kiosk/pkg/checkout"
	"github.com/aretw0/kiosk/pkg/domain"
)

var (
	redRef   = domain.ProductRef{Category: "flowers", Subcategory: "roses", Product: "red"}
	placedAt = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
)

func setup(t *testing.T) (*checkout.Machine, *cart.Engine, *testutils.Recorder, *domain.Session) {
	t.Helper()
	cat, err := catalog.Load([]byte(testutils.CatalogJSON))
	require.NoError(t, err)
	rec := testutils.NewRecorder()
	engine := cart.NewEngine(cat, cart.WithRecorder(rec))
	m := checkout.NewMachine(engine,
		checkout.WithRecorder(rec),
		checkout.WithClock(func() time.Time { return placedAt }),
		checkout.WithIDGenerator(func() string { return "order-1" }),
	)
	sess := domain.NewSession(domain.Identity{Username: "jane"}, time.Now())
	_, err = engine.AddCatalogItem(sess, redRef, "10")
	require.NoError(t, err)
	return m, engine, rec, sess
}

func feed(t *testing.T, m *checkout.Machine, s *domain.Session, inputs ...string) []checkout.Result {
	t.Helper()
	var out []checkout.Result
	for _, in := range inputs {
		res, err := m.HandleText(s, in)
		require.NoError(t, err, "input %q", in)
		out = append(out, res)
	}
	return out
}

func TestMachine_HappyPathWithSkip(t *testing.T) {
	m, _, _, s := setup(t)
	require.Equal(t, domain.DialogueNone, s.Dialogue)

	sum := m.Begin(s)
	assert.Equal(t, domain.DialogueAwaitingName, s.Dialogue)
	assert.Equal(t, &domain.CheckoutDraft{}, s.Checkout)
	assert.Equal(t, 12500.0, sum.Total)

	results := feed(t, m, s, "Jane Doe", "1 Main St", "skip")
	assert.Equal(t, domain.DialogueAwaitingAddress, results[0].To)
	assert.Equal(t, domain.DialogueAwaitingNote, results[1].To)
	assert.Equal(t, domain.DialogueReadyForPayment, results[2].To)
	for _, r := range results {
		assert.True(t, r.Advanced())
	}

	require.NotNil(t, results[2].Summary)
	assert.Equal(t, []string{"- 10 of Red Rose @ €12,500/unit"}, results[2].Summary.Lines)

	require.NotNil(t, s.Checkout)
	assert.Equal(t, "Jane Doe", *s.Checkout.Name)
	assert.Equal(t, "1 Main St", *s.Checkout.Address)
	assert.Nil(t, s.Checkout.Note)
}

func TestMachine_NoteVerbatim(t *testing.T) {
	m, _, _, s := setup(t)
	m.Begin(s)
	feed(t, m, s, "Jane Doe", "1 Main St", "leave at door")

	require.NotNil(t, s.Checkout.Note)
	assert.Equal(t, "leave at door", *s.Checkout.Note)
	assert.Equal(t, domain.DialogueReadyForPayment, s.Dialogue)
}

func TestIsSkip(t *testing.T) {
	for _, in := range []string{"none", "None", "NO", "skip", " Skip "} {
		assert.True(t, checkout.IsSkip(in), in)
	}
	for _, in := range []string{"nope", "skip it", "n", ""} {
		assert.False(t, checkout.IsSkip(in), in)
	}
}

func TestMachine_Confirm(t *testing.T) {
	m, _, rec, s := setup(t)
	m.Begin(s)
	feed(t, m, s, "Jane Doe", "1 Main St", "leave at door")

	order, err := m.Confirm(s, "btc")
	require.NoError(t, err)

	note := "leave at door"
	want := domain.OrderRecord{
		ID:            "order-1",
		Items:         []string{"- 10 of Red Rose @ €12,500/unit"},
		Total:         12500,
		Shipping:      domain.ShippingDetails{Name: "Jane Doe", Address: "1 Main St", Note: &note},
		PaymentMethod: "btc",
		PlacedAt:      placedAt,
	}
	assert.Equal(t, &want, order)
	assert.Equal(t, []domain.OrderRecord{want}, s.Orders)
	assert.Empty(t, s.Cart)
	assert.Nil(t, s.Checkout)
	assert.Equal(t, domain.DialogueNone, s.Dialogue)
	assert.Equal(t, []string{"btc"}, rec.Orders)

	t.Run("Second confirm is a no-op", func(t *testing.T) {
		again, err := m.Confirm(s, "btc")
		assert.ErrorIs(t, err, domain.ErrNoActiveCheckout)
		assert.Nil(t, again)
		assert.Len(t, s.Orders, 1)
		assert.Len(t, rec.Orders, 1)
	})
}

func TestMachine_ConfirmOutsideReadyState(t *testing.T) {
	m, _, _, s := setup(t)

	_, err := m.Confirm(s, "btc")
	assert.ErrorIs(t, err, domain.ErrNoActiveCheckout)

	m.Begin(s)
	feed(t, m, s, "Jane Doe")
	_, err = m.Confirm(s, "btc")
	assert.ErrorIs(t, err, domain.ErrNoActiveCheckout)
	assert.Len(t, s.Cart, 1)
	assert.Equal(t, domain.DialogueAwaitingAddress, s.Dialogue)
}

func TestMachine_ConfirmUnknownMethod(t *testing.T) {
	m, _, _, s := setup(t)
	m.Begin(s)
	feed(t, m, s, "Jane Doe", "1 Main St", "no")

	_, err := m.Confirm(s, "paypal")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.DialogueReadyForPayment, s.Dialogue)
	assert.Empty(t, s.Orders)
	assert.Len(t, s.Cart, 1)
}

func TestMachine_ConfirmEmptyCart(t *testing.T) {
	m, engine, rec, s := setup(t)
	m.Begin(s)
	feed(t, m, s, "Jane Doe", "1 Main St", "skip")
	engine.Clear(s)

	order, err := m.Confirm(s, "btc")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Nil(t, order)
	assert.Empty(t, s.Orders)
	assert.Empty(t, rec.Orders)
	assert.Equal(t, domain.DialogueReadyForPayment, s.Dialogue)
	require.NotNil(t, s.Checkout)
}

func TestMachine_TextAtReadyForPayment(t *testing.T) {
	m, _, _, s := setup(t)
	m.Begin(s)
	feed(t, m, s, "Jane Doe", "1 Main St", "none")

	res, err := m.HandleText(s, "here is my payment")
	require.NoError(t, err)
	assert.False(t, res.Advanced())
	assert.Equal(t, domain.DialogueReadyForPayment, s.Dialogue)
	assert.Nil(t, res.Summary)
}

func TestMachine_BlankInput(t *testing.T) {
	m, _, _, s := setup(t)
	m.Begin(s)

	_, err := m.HandleText(s, "   ")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
	assert.Equal(t, domain.DialogueAwaitingName, s.Dialogue)
	assert.Nil(t, s.Checkout.Name)

	feed(t, m, s, "Jane Doe")
	_, err = m.HandleText(s, "")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "address", vErr.Field)

	feed(t, m, s, "1 Main St", "")
	assert.Nil(t, s.Checkout.Note)
	assert.Equal(t, domain.DialogueReadyForPayment, s.Dialogue)
}

func TestMachine_TextWithoutCheckout(t *testing.T) {
	m, _, _, s := setup(t)
	_, err := m.HandleText(s, "Jane Doe")
	assert.ErrorIs(t, err, domain.ErrNoActiveCheckout)
	assert.Nil(t, s.Checkout)
}

func TestMachine_BeginResetsDraft(t *testing.T) {
	m, _, _, s := setup(t)
	m.Begin(s)
	feed(t, m, s, "Jane Doe", "1 Main St")

	m.Begin(s)
	assert.Equal(t, &domain.CheckoutDraft{}, s.Checkout)
	assert.Equal(t, domain.DialogueAwaitingName, s.Dialogue)
}

func TestMachine_Cancel(t *testing.T) {
	m, _, _, s := setup(t)
	assert.ErrorIs(t, m.Cancel(s), domain.ErrNoActiveCheckout)

	m.Begin(s)
	feed(t, m, s, "Jane Doe")
	require.NoError(t, m.Cancel(s))

	assert.Nil(t, s.Checkout)
	assert.Equal(t, domain.DialogueNone, s.Dialogue)
	assert.Len(t, s.Cart, 1, "cancel keeps the cart")
	assert.Empty(t, s.Orders)
}

func TestShipping(t *testing.T) {
	assert.Equal(t, domain.ShippingDetails{}, checkout.Shipping(nil))

	name := "Jane"
	got := checkout.Shipping(&domain.CheckoutDraft{Name: &name})
	assert.Equal(t, domain.ShippingDetails{Name: "Jane"}, got)
}
