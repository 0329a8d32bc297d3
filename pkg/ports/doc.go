/*
Package ports defines the driven ports (interfaces) for the Kiosk core.

These interfaces decouple the session, cart and checkout logic from external
implementations, allowing the storefront to run with various session stores,
content sources, outbound feeds and metrics backends.

# Key Interfaces

  - SessionStore: Holds per-user Session values for the lifetime of the process.
  - PageSource: Provides static content pages (help, user guide, coupons...).
  - OrderPublisher: Receives activity and order notifications after an event is handled.
  - Recorder: Observability sink for counters the core cares about.
*/
package ports
