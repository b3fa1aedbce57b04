package payment

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the event type that triggers order fulfillment.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidSignature is returned when an event payload fails signature
// verification. It must never lead to any state change.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// LineItem is one entry of a checkout session, always quantity 1 in this
// storefront.
type LineItem struct {
	Title       string
	Description string
	Image       string
	UnitAmount  int64 // minor currency units
	Quantity    int64
}

// CreateSessionInput describes a hosted checkout session to be created.
type CreateSessionInput struct {
	Email      string
	Items      []LineItem
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// Session is the provider's view of one checkout attempt. ID is the opaque
// session identifier that later keys the order record.
type Session struct {
	ID             string
	URL            string
	AmountTotal    int64
	AmountShipping int64
	Metadata       map[string]string
}

// Event is a verified provider notification. Session is only populated for
// checkout-completed events.
type Event struct {
	Type    string
	Session *Session
}

// Provider is the external payment collaborator: it creates hosted checkout
// sessions and verifies asynchronous completion events.
type Provider interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (Session, error)
	VerifyEvent(payload []byte, sigHeader string) (Event, error)
}
