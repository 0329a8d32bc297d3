// Package dispatch routes parsed user events to the storefront core.
//
// A Dispatcher takes one event at a time per identity, applies it to the
// identity's session through the cart engine or the checkout machine, and
// answers with a domain.View. Transports only translate their wire format
// into domain.Event values and render the returned view.
package dispatch
