// Package checkout implements the checkout dialogue.
//
// The dialogue is linear and driven only by free text: a name, an address
// and an optional note. Once ready for payment, a payment selection places
// the order, clears the cart and resets the dialogue.
package checkout
