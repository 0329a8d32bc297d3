/*
Package observability provides tools for monitoring the storefront core.

Metrics implements ports.Recorder on top of Prometheus collectors. It counts
handled events, placed orders and their value, and keeps price-parse failures
apart from default-price fallbacks so operators can tell catalog data
problems from genuine zero prices.
*/
package observability
