// Package cart adds, lists, prices and clears the items in a session's cart.
//
// Catalog-backed entries are priced when the cart is summarized, so they follow
// the current catalog. Custom quantities are priced once when added and keep
// that price.
package cart
