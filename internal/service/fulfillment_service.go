package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
)

// OrderStore is the durable keyed order storage the fulfillment flow writes
// to and the lookup flow reads from.
type OrderStore interface {
	UpsertOrder(ctx context.Context, order *entity.Order) error
	GetOrder(ctx context.Context, email, sessionID string) (*entity.Order, error)
}

// Publisher is satisfied by *kafka.Writer.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// FulfillmentService is the payment event receiver: it verifies completion
// events and translates each one into exactly one durable order record.
type FulfillmentService struct {
	store    OrderStore
	provider payment.Provider
	writer   Publisher // nil disables event publishing
}

// NewFulfillmentService creates a new instance of FulfillmentService.
func NewFulfillmentService(store OrderStore, provider payment.Provider, writer Publisher) *FulfillmentService {
	return &FulfillmentService{
		store:    store,
		provider: provider,
		writer:   writer,
	}
}

// HandleEvent processes one raw webhook delivery. Signature verification is
// the security boundary and runs before anything else; a bad signature causes
// no state change. Events other than checkout completion are acknowledged and
// ignored. The order write is an idempotent upsert keyed by
// (email, session_id), so redelivery of the same event is harmless. A write
// failure is returned as such so the provider's redelivery can retry; it is
// never reported as a verification failure.
func (s *FulfillmentService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.VerifyEvent(payload, sigHeader)
	if err != nil {
		logger.Error().Err(err).Msg("Webhook verification failed")
		return err
	}

	if event.Type != payment.EventCheckoutCompleted || event.Session == nil {
		logger.Info().Str("type", event.Type).Msg("Ignoring webhook event")
		return nil
	}

	sess := event.Session
	email := payment.MetadataEmail(sess.Metadata)
	if email == "" {
		logger.Error().Str("session_id", sess.ID).Msg("Email not found in session metadata")
		return entity.ErrMissingIdentity
	}

	order := &entity.Order{
		SessionID:      sess.ID,
		Email:          email,
		Amount:         sess.AmountTotal,
		AmountShipping: sess.AmountShipping,
		Images:         payment.DecodeImages(sess.Metadata),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.UpsertOrder(ctx, order); err != nil {
		logger.Error().Err(err).Str("session_id", sess.ID).Msg("Error writing order")
		return fmt.Errorf("write order %s: %w", sess.ID, err)
	}
	logger.Info().Str("session_id", sess.ID).Msg("Order has been added to the database")

	// Best effort: the ack contract covers the durable write, not the event
	// stream.
	if err := s.publishOrderEvent(ctx, order, "fulfilled"); err != nil {
		logger.Error().Err(err).Str("session_id", sess.ID).Msg("Error publishing order event")
	}
	return nil
}

func (s *FulfillmentService) publishOrderEvent(ctx context.Context, order *entity.Order, key string) error {
	if s.writer == nil {
		return nil
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order.%s.%s", key, order.SessionID)),
		Value: orderJSON,
	}

	return s.writer.WriteMessages(ctx, msg)
}
