// Package loam serves the storefront's static content pages (help, user
// guide, coupons, ...) from a directory of Markdown files managed by Loam.
package loam
