package service

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// CheckoutService is the checkout session initiator: it turns a basket into a
// hosted payment session and hands back the redirect target.
type CheckoutService struct {
	provider   payment.Provider
	successURL string
	cancelURL  string
}

// NewCheckoutService creates a new instance of CheckoutService. baseURL is
// the public storefront origin used for the post-payment redirects.
func NewCheckoutService(provider payment.Provider, baseURL string) *CheckoutService {
	return &CheckoutService{
		provider:   provider,
		successURL: baseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  baseURL + "/checkout",
	}
}

// CreateSession requests a hosted checkout session for the basket. Every line
// item is quantity 1; prices are converted to minor units with half-up
// rounding. The purchaser email and the ordered image list ride along as
// session metadata so the webhook handler can reconstruct the purchase when
// the completion event arrives. No local state is written.
func (s *CheckoutService) CreateSession(ctx context.Context, req *entity.CheckoutRequest) (payment.Session, error) {
	if len(req.Items) == 0 {
		return payment.Session{}, entity.ErrEmptyBasket
	}

	items := make([]payment.LineItem, 0, len(req.Items))
	images := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, payment.LineItem{
			Title:       item.Title,
			Description: item.Description,
			Image:       item.Image,
			UnitAmount:  entity.ToMinorUnits(item.Price),
			Quantity:    1,
		})
		images = append(images, item.Image)
	}

	metadata, err := payment.EncodeMetadata(req.Email, images)
	if err != nil {
		logger.Error().Err(err).Msg("Error encoding session metadata")
		return payment.Session{}, err
	}

	sess, err := s.provider.CreateSession(ctx, payment.CreateSessionInput{
		Email:      req.Email,
		Items:      items,
		Metadata:   metadata,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating checkout session")
		return payment.Session{}, err
	}

	logger.Info().Str("session_id", sess.ID).Int("items", len(items)).Msg("Checkout session created")
	return sess, nil
}
