package middleware

import "github.com/aretw0/kiosk/pkg/ports"

// Middleware allows wrapping an OrderPublisher to add behavior.
type Middleware func(ports.OrderPublisher) ports.OrderPublisher

// Chain applies the middlewares so the first one sees the event first.
func Chain(next ports.OrderPublisher, mws ...Middleware) ports.OrderPublisher {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}
