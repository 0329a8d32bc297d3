/*
Package kiosk is the core of a conversational storefront: a menu-driven chat
shop that browses a nested product catalog, keeps a cart per user and walks
the user through a short checkout dialogue.

# Concept

Transports (a console chat, an HTTP webhook, an MCP agent) parse their wire
format into a domain.Event and hand it to Shop.Dispatch. The shop applies the
event to the user's session, one event at a time per user, and answers with a
domain.View: text, a list of labeled actions and an optional media reference.
Rendering the view is left to the transport.

# Pricing

Catalog prices come in many shapes ("€12,500/unit", "40", 40). Totals are
computed when the cart is shown, so catalog-backed entries always follow the
current catalog, while custom quantities carry the price frozen at the time
they were added. Entries that no longer resolve are shown with an unknown
price instead of failing the whole cart.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/kiosk"
		"github.com/aretw0/kiosk/pkg/domain"
	)

	func main() {
		// A broken catalog falls back to safe defaults; the error says why.
		shop, err := kiosk.Open("./data.json")
		if err != nil {
			log.Printf("catalog degraded: %v", err)
		}

		user := domain.Identity{UserID: 42, Username: "jane"}
		view, err := shop.Dispatch(context.Background(), domain.Event{
			Identity: user,
			Kind:     domain.EventCommand,
			Command:  domain.CommandStart,
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(view.Text)
		for _, a := range view.Actions {
			fmt.Println(a.Label, "->", a.Data)
		}
	}
*/
package kiosk
