package payment

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig carries the environment-level Stripe settings.
type StripeConfig struct {
	SecretKey      string
	SigningSecret  string
	Currency       string
	ShippingRateID string
}

// StripeProvider implements Provider against Stripe hosted checkout.
type StripeProvider struct {
	signingSecret  string
	currency       string
	shippingRateID string
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	stripe.Key = cfg.SecretKey
	currency := cfg.Currency
	if currency == "" {
		currency = "aud"
	}
	return &StripeProvider{
		signingSecret:  cfg.SigningSecret,
		currency:       currency,
		shippingRateID: cfg.ShippingRateID,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US", "AU", "BD"}),
		},
	}
	params.Context = ctx

	if p.shippingRateID != "" {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripe.String(p.shippingRateID)},
		}
	}

	for key, value := range in.Metadata {
		params.AddMetadata(key, value)
	}

	for _, item := range in.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Title),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if item.Image != "" {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(p.currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: productData,
			},
		})
	}

	s, err := session.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}

	return Session{
		ID:       s.ID,
		URL:      s.URL,
		Metadata: s.Metadata,
	}, nil
}

// VerifyEvent checks the Stripe-Signature header against the signing secret
// and decodes the embedded checkout session for completed events. API version
// drift between Stripe and the SDK is tolerated; the signature is not.
func (p *StripeProvider) VerifyEvent(payload []byte, sigHeader string) (Event, error) {
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, sigHeader, p.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event := Event{Type: string(stripeEvent.Type)}
	if event.Type != EventCheckoutCompleted {
		return event, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(stripeEvent.Data.Raw, &cs); err != nil {
		return Event{}, fmt.Errorf("decode checkout session: %w", err)
	}

	sess := Session{
		ID:          cs.ID,
		URL:         cs.URL,
		AmountTotal: cs.AmountTotal,
		Metadata:    cs.Metadata,
	}
	if cs.TotalDetails != nil {
		sess.AmountShipping = cs.TotalDetails.AmountShipping
	}
	event.Session = &sess
	return event, nil
}
