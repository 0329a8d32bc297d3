// Package redis publishes the storefront activity and order feed to Redis
// streams, where back-office consumers can follow it.
package redis
