// Package http exposes the storefront over HTTP with chi.
//
// Requests are checked against the embedded OpenAPI document before they
// reach a handler. Feed events for a session can be followed with
// server-sent events at /events/stream.
package http
