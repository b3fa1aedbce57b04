package entity

import "time"

// Order is the durable record produced by a completed checkout session.
// It is keyed by (email, session_id), written exactly once by the webhook
// fulfillment path and never mutated afterwards.
type Order struct {
	SessionID      string    `json:"session_id"`
	Email          string    `json:"email"`
	Amount         int64     `json:"amount"`          // total in minor currency units
	AmountShipping int64     `json:"amount_shipping"` // shipping portion in minor currency units
	Images         []string  `json:"images"`
	CreatedAt      time.Time `json:"created_at"`
}

// BasketItem is one client-side basket entry. Repeated adds of the same
// product stay separate entries, each with its own BasketID.
type BasketItem struct {
	ID          int     `json:"id"`
	BasketID    string  `json:"basket_id,omitempty"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	HasPrime    bool    `json:"has_prime"`
	Rating      float64 `json:"rating"`
}

// CheckoutRequest is the payload for creating a hosted checkout session.
// Email may be empty when the purchaser has not signed in yet.
type CheckoutRequest struct {
	Items []BasketItem `json:"items"`
	Email string       `json:"email"`
}
