package domain

import (
	"fmt"
	"strings"
)

// ActionKind enumerates every selection the storefront understands.
type ActionKind string

const (
	ActionMainMenu         ActionKind = "main_menu"
	ActionSelectCountry    ActionKind = "country"
	ActionHowItWorks       ActionKind = "how_it_works"
	ActionHelp             ActionKind = "help"
	ActionUserGuide        ActionKind = "user_guide"
	ActionRefEarn          ActionKind = "ref_earn"
	ActionCoupon           ActionKind = "coupon"
	ActionFriendlyServices ActionKind = "friendly_services"
	ActionReviews          ActionKind = "reviews"
	ActionFAQs             ActionKind = "faqs"
	ActionProducts         ActionKind = "products"
	ActionViewCategory     ActionKind = "category"
	ActionViewSubcategory  ActionKind = "subcategory"
	ActionViewProduct      ActionKind = "product"
	ActionAddQuantity      ActionKind = "quantity"
	ActionCustomQuantity   ActionKind = "custom_qty"
	ActionViewCart         ActionKind = "cart"
	ActionClearCart        ActionKind = "clear_cart"
	ActionCheckout         ActionKind = "checkout"
	ActionCancelCheckout   ActionKind = "cancel_checkout"
	ActionChoosePayment    ActionKind = "pay"
	ActionConfirmPayment   ActionKind = "confirm_payment"
	ActionViewOrders       ActionKind = "orders"

	// ActionUnknown stands in for a payload that could not be decoded.
	ActionUnknown ActionKind = "unknown"
)

const actionSeparator = "|"

// Arguments escape the separator so catalog keys may contain it.
var (
	argEscaper   = strings.NewReplacer("%", "%25", actionSeparator, "%7C")
	argUnescaper = strings.NewReplacer("%7C", actionSeparator, "%7c", actionSeparator, "%25", "%")
)

// Action is a decoded selection payload. Only the fields relevant to Kind are set.
type Action struct {
	Kind        ActionKind `json:"kind"`
	Country     string     `json:"country,omitempty"`
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	Product     string     `json:"product,omitempty"`
	Quantity    string     `json:"quantity,omitempty"`
	Method      string     `json:"method,omitempty"`
}

// Ref returns the product path carried by the action.
func (a Action) Ref() ProductRef {
	return ProductRef{Category: a.Category, Subcategory: a.Subcategory, Product: a.Product}
}

// arity is the number of arguments each kind carries on the wire.
var arity = map[ActionKind]int{
	ActionMainMenu:         0,
	ActionSelectCountry:    1,
	ActionHowItWorks:       0,
	ActionHelp:             0,
	ActionUserGuide:        0,
	ActionRefEarn:          0,
	ActionCoupon:           0,
	ActionFriendlyServices: 0,
	ActionReviews:          0,
	ActionFAQs:             0,
	ActionProducts:         0,
	ActionViewCategory:     1,
	ActionViewSubcategory:  2,
	ActionViewProduct:      3,
	ActionAddQuantity:      4,
	ActionCustomQuantity:   3,
	ActionViewCart:         0,
	ActionClearCart:        0,
	ActionCheckout:         0,
	ActionCancelCheckout:   0,
	ActionChoosePayment:    1,
	ActionConfirmPayment:   1,
	ActionViewOrders:       0,
}

func (a Action) args() []string {
	switch a.Kind {
	case ActionSelectCountry:
		return []string{a.Country}
	case ActionViewCategory:
		return []string{a.Category}
	case ActionViewSubcategory:
		return []string{a.Category, a.Subcategory}
	case ActionViewProduct, ActionCustomQuantity:
		return []string{a.Category, a.Subcategory, a.Product}
	case ActionAddQuantity:
		return []string{a.Category, a.Subcategory, a.Product, a.Quantity}
	case ActionChoosePayment, ActionConfirmPayment:
		return []string{a.Method}
	default:
		return nil
	}
}

// Encode serializes the action into the compact wire form used by transports,
// e.g. "quantity|flowers|roses|red|10". A "|" or "%" inside an argument is
// percent-encoded.
func (a Action) Encode() string {
	parts := []string{string(a.Kind)}
	for _, arg := range a.args() {
		parts = append(parts, argEscaper.Replace(arg))
	}
	return strings.Join(parts, actionSeparator)
}

// DecodeAction parses the wire form produced by Encode.
func DecodeAction(data string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(data), actionSeparator)
	kind := ActionKind(parts[0])
	n, ok := arity[kind]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
	}
	args := parts[1:]
	for i, arg := range args {
		args[i] = argUnescaper.Replace(arg)
	}
	if len(args) != n {
		return Action{}, fmt.Errorf("%w: %q expects %d arguments, got %d", ErrUnknownAction, kind, n, len(args))
	}
	for _, arg := range args {
		if arg == "" {
			return Action{}, fmt.Errorf("%w: %q has an empty argument", ErrUnknownAction, data)
		}
	}

	a := Action{Kind: kind}
	switch kind {
	case ActionSelectCountry:
		a.Country = args[0]
	case ActionViewCategory:
		a.Category = args[0]
	case ActionViewSubcategory:
		a.Category, a.Subcategory = args[0], args[1]
	case ActionViewProduct, ActionCustomQuantity:
		a.Category, a.Subcategory, a.Product = args[0], args[1], args[2]
	case ActionAddQuantity:
		a.Category, a.Subcategory, a.Product, a.Quantity = args[0], args[1], args[2], args[3]
	case ActionChoosePayment, ActionConfirmPayment:
		a.Method = args[0]
	}
	return a, nil
}
