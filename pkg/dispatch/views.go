package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/kiosk/pkg/cart"
	"github.com/aretw0/kiosk/pkg/catalog"
	"github.com/aretw0/kiosk/pkg/checkout"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/pricing"
)

// Prompts and fixed texts.
const (
	TextSelectCountry   = "🌍 Please select your country:"
	TextMainMenu        = "🏠 Main Menu:"
	TextSelectCategory  = "🎁 Select a category:"
	TextChooseProduct   = "🛍 Choose a product:"
	TextCustomQuantity  = "✏️ Please type the quantity you want (e.g. 10, 2, etc.)"
	TextEmptyCart       = "🛒 Your cart is currently empty."
	TextCartCleared     = "🗑 Your cart has been cleared."
	TextAskName         = "Please enter your Full Name:"
	TextAskAddress      = "📍 Enter your Delivery Address (street, city, postcode, country):"
	TextAskNote         = "📝 Enter a Delivery Note (optional). Type 'None' to skip:"
	TextChoosePayment   = "Choose a payment method:"
	TextRepromptPayment = "Please choose a payment method using the options below."
	TextNoOrders        = "📦 You have no orders yet."
	TextNoPayment       = "There is no checkout waiting for payment."
	TextNoCheckout      = "There is no checkout in progress."
	TextCancelled       = "Checkout cancelled. Your cart is still saved."
	TextUnknownAction   = "⚠️ Unknown action. Returning to main menu."
	TextUnavailable     = "⚠️ That item is no longer available. Returning to main menu."
	TextNoReviews       = "No reviews available at the moment."
	TextNothingHere     = "Nothing here yet."
	TextPageUnavailable = "This page is not available right now."
	TextHelpCommand     = "Use /reviews to see product reviews or use the menu buttons."
)

func ref(label string, kind domain.ActionKind) domain.ActionRef {
	return domain.NewActionRef(label, domain.Action{Kind: kind})
}

var (
	backToMenu     = ref("⬅️ Back to Menu", domain.ActionMainMenu)
	backToProducts = ref("⬅️ Back to Products", domain.ActionProducts)
	backToCart     = ref("⬅️ Back to Cart", domain.ActionViewCart)
	cancelCheckout = ref("✖️ Cancel Checkout", domain.ActionCancelCheckout)
)

// mainMenu lists the top level actions with live cart and order counters.
func mainMenu(s *domain.Session) []domain.ActionRef {
	return []domain.ActionRef{
		ref("🤔 How does it work?", domain.ActionHowItWorks),
		ref("✋ Help", domain.ActionHelp),
		ref("📘 User Guide", domain.ActionUserGuide),
		ref("🎁 Products", domain.ActionProducts),
		ref("📊 Reviews", domain.ActionReviews),
		ref("📢 Ref & Earn", domain.ActionRefEarn),
		ref("🏷 Coupon", domain.ActionCoupon),
		ref("❤️ Friendly Services", domain.ActionFriendlyServices),
		ref("❓ FAQs", domain.ActionFAQs),
		ref(fmt.Sprintf("🛒 Cart (%d)", len(s.Cart)), domain.ActionViewCart),
		ref(fmt.Sprintf("📦 Orders (%d)", len(s.Orders)), domain.ActionViewOrders),
	}
}

func menuView(s *domain.Session, text string) *domain.View {
	return &domain.View{Text: text, Actions: mainMenu(s)}
}

func countryView(c *domain.Catalog) *domain.View {
	actions := make([]domain.ActionRef, 0, len(c.Countries))
	for _, country := range c.Countries {
		actions = append(actions, domain.NewActionRef(country, domain.Action{Kind: domain.ActionSelectCountry, Country: country}))
	}
	return &domain.View{Text: TextSelectCountry, Actions: actions}
}

// joinedView renders a list of catalog paragraphs separated by blank lines.
func joinedView(s *domain.Session, paragraphs []string) *domain.View {
	text := strings.Join(paragraphs, "\n\n")
	if strings.TrimSpace(text) == "" {
		text = TextNothingHere
	}
	return menuView(s, text)
}

func reviewsText(c *domain.Catalog) string {
	if len(c.Reviews) == 0 {
		return TextNoReviews
	}
	var lines []string
	for _, pr := range c.Reviews {
		lines = append(lines, fmt.Sprintf("📦 %s Reviews:\n", titleCase(pr.ProductKey)))
		if pr.Malformed {
			lines = append(lines, fmt.Sprintf("\n(Error displaying reviews for %s)", pr.ProductKey))
		}
		for _, r := range pr.Reviews {
			if r.Malformed {
				lines = append(lines, "\n(Error displaying this review)")
				continue
			}
			lines = append(lines, fmt.Sprintf("\n%s %s", stars(r.Stars), r.Text))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("⭐", n)
}

// titleCase turns a key such as "red_rose" into "Red Rose".
func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func categoriesView(c *domain.Catalog) *domain.View {
	actions := make([]domain.ActionRef, 0, len(c.Categories)+1)
	for _, cat := range c.Categories {
		actions = append(actions, domain.NewActionRef(cat.Name, domain.Action{Kind: domain.ActionViewCategory, Category: cat.Key}))
	}
	actions = append(actions, backToMenu)
	return &domain.View{Text: TextSelectCategory, Actions: actions}
}

func subcategoriesView(cat *domain.Category) *domain.View {
	actions := make([]domain.ActionRef, 0, len(cat.Subcategories)+1)
	for _, sub := range cat.Subcategories {
		actions = append(actions, domain.NewActionRef(sub.Name, domain.Action{
			Kind: domain.ActionViewSubcategory, Category: cat.Key, Subcategory: sub.Key,
		}))
	}
	actions = append(actions, backToProducts)
	return &domain.View{Text: fmt.Sprintf("📂 Subcategories under %s:", cat.Name), Actions: actions}
}

func productsView(category string, sub *domain.Subcategory) *domain.View {
	actions := make([]domain.ActionRef, 0, len(sub.Products)+1)
	for _, p := range sub.Products {
		actions = append(actions, domain.NewActionRef(p.Name, domain.Action{
			Kind: domain.ActionViewProduct, Category: category, Subcategory: sub.Key, Product: p.Key,
		}))
	}
	actions = append(actions, domain.NewActionRef("⬅️ Back to Subcategories", domain.Action{Kind: domain.ActionViewCategory, Category: category}))
	return &domain.View{Text: TextChooseProduct, Actions: actions}
}

// productCard shows a product with its quantity options and media reference.
func productCard(c *domain.Catalog, r domain.ProductRef, p *domain.Product) *domain.View {
	var avails []string
	actions := make([]domain.ActionRef, 0, len(p.Price.Quantities)+2)
	for _, q := range p.Price.Quantities {
		label := q.Label
		if q.Price != nil {
			avails = append(avails, fmt.Sprintf("%s (%s)", q.Label, q.Price))
			label = fmt.Sprintf("%s - %s", q.Label, q.Price)
		} else {
			avails = append(avails, q.Label)
		}
		actions = append(actions, domain.NewActionRef(label, domain.Action{
			Kind: domain.ActionAddQuantity, Category: r.Category, Subcategory: r.Subcategory, Product: r.Product, Quantity: q.Label,
		}))
	}
	if len(p.Price.Quantities) == 0 && p.Price.Flat != nil {
		actions = append(actions, domain.NewActionRef(fmt.Sprintf("%s - %s", pricing.UnitLabel, p.Price.Flat), domain.Action{
			Kind: domain.ActionAddQuantity, Category: r.Category, Subcategory: r.Subcategory, Product: r.Product, Quantity: pricing.UnitLabel,
		}))
	}
	actions = append(actions,
		domain.NewActionRef("✏️ Enter Custom Quantity", domain.Action{
			Kind: domain.ActionCustomQuantity, Category: r.Category, Subcategory: r.Subcategory, Product: r.Product,
		}),
		domain.NewActionRef("⬅️ Back to Products", domain.Action{
			Kind: domain.ActionViewSubcategory, Category: r.Category, Subcategory: r.Subcategory,
		}),
	)

	description := p.Description
	if description == "" {
		description = "No description available."
	}
	available := strings.Join(avails, ", ")
	if available == "" {
		available = "See options below."
	}
	if len(p.Price.Quantities) == 0 && p.Price.Flat != nil {
		available = fmt.Sprintf("%s (%s)", pricing.UnitLabel, p.Price.Flat)
	}

	return &domain.View{
		Text:    fmt.Sprintf("%s\n\n%s\n\nAvailable: %s", p.Name, description, available),
		Actions: actions,
		Media:   productImage(c, p),
	}
}

// productImage picks the product image, else the configured placeholder,
// else the built-in placeholder.
func productImage(c *domain.Catalog, p *domain.Product) string {
	if p.Image != "" {
		return p.Image
	}
	if c.Settings.Placeholders.ProductImage != "" {
		return c.Settings.Placeholders.ProductImage
	}
	return catalog.DefaultProductImage
}

func cartText(title string, sum cart.Summary) string {
	return fmt.Sprintf("%s\n%s\n\nTotal: %s", title, strings.Join(sum.Lines, "\n"), sum.FormattedTotal())
}

func cartView(sum cart.Summary) *domain.View {
	return &domain.View{
		Text: cartText("🛒 Your Cart:", sum),
		Actions: []domain.ActionRef{
			ref("🧾 Checkout", domain.ActionCheckout),
			ref("🗑 Clear Cart", domain.ActionClearCart),
			backToMenu,
		},
	}
}

func shippingText(d domain.ShippingDetails) string {
	note := "-"
	if d.Note != nil {
		note = *d.Note
	}
	return fmt.Sprintf("Shipping Details:\n• Name: %s\n• Address: %s\n• Note: %s", dash(d.Name), dash(d.Address), note)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func paymentActions(c *domain.Catalog) []domain.ActionRef {
	methods := c.PaymentMethods()
	actions := make([]domain.ActionRef, 0, len(methods)+2)
	for _, m := range methods {
		actions = append(actions, domain.NewActionRef("Pay with "+m.Label, domain.Action{Kind: domain.ActionChoosePayment, Method: m.Code}))
	}
	return append(actions, cancelCheckout, backToMenu)
}

func readyForPaymentView(c *domain.Catalog, s *domain.Session, sum cart.Summary) *domain.View {
	text := cartText("🧾 Checkout Summary:", sum) + "\n\n" + shippingText(checkout.Shipping(s.Checkout)) + "\n\n" + TextChoosePayment
	return &domain.View{Text: text, Actions: paymentActions(c)}
}

func paymentView(m domain.PaymentMethod) *domain.View {
	return &domain.View{
		Text: fmt.Sprintf("🪙 Send %s to:\n%s\n\nAfter sending, choose \"I have paid\" to confirm.", m.Label, m.Destination),
		Actions: []domain.ActionRef{
			domain.NewActionRef("I have paid (Confirm)", domain.Action{Kind: domain.ActionConfirmPayment, Method: m.Code}),
			backToCart,
		},
	}
}

// OrderText renders a placed order.
func OrderText(o domain.OrderRecord) string {
	return fmt.Sprintf("Order %s via %s:\n%s\n\nTotal: %s\n\n%s",
		shortID(o.ID),
		domain.PaymentLabel(o.PaymentMethod),
		strings.Join(o.Items, "\n"),
		pricing.Format(o.Total),
		shippingText(o.Shipping),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func ordersView(s *domain.Session) *domain.View {
	if len(s.Orders) == 0 {
		return menuView(s, TextNoOrders)
	}
	texts := make([]string, 0, len(s.Orders))
	for i, o := range s.Orders {
		texts = append(texts, strconv.Itoa(i+1)+". "+OrderText(o))
	}
	return menuView(s, "📦 Your Orders:\n"+strings.Join(texts, "\n\n"))
}
