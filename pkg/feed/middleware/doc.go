// Package middleware provides wrappers for ports.OrderPublisher that keep
// customer data out of the activity and order feed.
package middleware
