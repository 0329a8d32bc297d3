package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/kiosk/pkg/domain"
)

func TestIdentity_Key(t *testing.T) {
	tests := []struct {
		name string
		id   domain.Identity
		want string
	}{
		{"Username is lower-cased", domain.Identity{UserID: 1, Username: "JaneDoe", FirstName: "Jane"}, "janedoe"},
		{"Display name with spaces", domain.Identity{UserID: 2, FirstName: "Jane", LastName: "van Doe"}, "Jane_van_Doe"},
		{"First name only", domain.Identity{UserID: 3, FirstName: " Jane "}, "Jane"},
		{"Numeric fallback", domain.Identity{UserID: 42}, "id_42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Key())
			assert.Equal(t, tt.id.Key(), tt.id.Key(), "key must be stable")
		})
	}
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := domain.NewSession(domain.Identity{Username: "a"}, time.Now())
	name, note := "Jane", "door"
	s.Checkout = &domain.CheckoutDraft{Name: &name}
	s.Cart = append(s.Cart, domain.NewPrecomputedEntry("Rose", 1, "1.00€"))
	s.Orders = append(s.Orders, domain.OrderRecord{Items: []string{"x"}, Shipping: domain.ShippingDetails{Note: &note}})
	s.PendingCustomQuantity = &domain.ProductRef{Product: "red"}
	s.Record(time.Now(), "start", map[string]string{"k": "v"})

	c := s.Clone()
	*c.Checkout.Name = "Other"
	c.Cart[0].Quantity = 9
	c.Orders[0].Items[0] = "y"
	*c.Orders[0].Shipping.Note = "changed"
	c.PendingCustomQuantity.Product = "white"
	c.Activity[0].Details["k"] = "changed"

	assert.Equal(t, "Jane", *s.Checkout.Name)
	assert.Equal(t, 1, s.Cart[0].Quantity)
	assert.Equal(t, "x", s.Orders[0].Items[0])
	assert.Equal(t, "door", *s.Orders[0].Shipping.Note)
	assert.Equal(t, "red", s.PendingCustomQuantity.Product)
	assert.Equal(t, "v", s.Activity[0].Details["k"])
}
