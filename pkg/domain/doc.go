/*
Package domain contains the core domain models of the Kiosk storefront.

It defines the read-only catalog hierarchy, the per-user Session with its cart,
orders and checkout dialogue, the inbound Event contract and the outbound View
model. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Catalog: Categories -> Subcategories -> Products -> price options.
  - CartEntry: A line item, either catalog-backed (priced at display time) or precomputed (price frozen at add time).
  - Session: All mutable per-user state (cart, orders, dialogue state, navigation scratch data).
  - Event: A structured inbound user event (command, selection or free text).
  - View: What the host should render: text, available actions and an optional media reference.
*/
package domain
