/*
Package catalog loads the read-only product catalog.

The document is JSON (or any YAML 1.2 superset of it) holding categories,
subcategories, products with their price options, FAQ and "how it works"
entries, reviews keyed by product and the payment destinations. Documents
pasted out of a Markdown code block are accepted: the surrounding fences are
stripped before parsing.

Loading never fails hard. A missing or corrupt document yields a minimal
catalog (see Default) so the storefront stays usable in degraded mode, and
the cause is returned as a *domain.LoadError.
*/
package catalog
