package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/entity"
)

const orderCacheTTL = 1 * time.Hour

// OrderService is the order lookup responder. It is a pure read and safe to
// call arbitrarily often, which the confirmation poller relies on.
type OrderService struct {
	store OrderStore
	rdb   *redis.Client // nil disables the cache
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(store OrderStore, rdb *redis.Client) *OrderService {
	return &OrderService{
		store: store,
		rdb:   rdb,
	}
}

// GetOrder returns the order for the exact (email, session_id) pair. Found
// orders are immutable, so hits are cached; not-found is never cached because
// it is usually just the webhook racing the purchaser's redirect.
func (s *OrderService) GetOrder(ctx context.Context, email, sessionID string) (*entity.Order, error) {
	key := orderCacheKey(email, sessionID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Str("session_id", sessionID).Msg("Error reading order from cache")
		}
		if cached != "" {
			var order entity.Order
			if err := json.Unmarshal([]byte(cached), &order); err == nil {
				return &order, nil
			}
			logger.Warn().Str("session_id", sessionID).Msg("Discarding malformed cached order")
		}
	}

	order, err := s.store.GetOrder(ctx, email, sessionID)
	if err != nil {
		if !errors.Is(err, entity.ErrOrderNotFound) {
			logger.Error().Err(err).Str("session_id", sessionID).Msg("Error fetching order")
		}
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(order); err == nil {
			if err := s.rdb.Set(ctx, key, raw, orderCacheTTL).Err(); err != nil {
				logger.Error().Err(err).Str("session_id", sessionID).Msg("Error caching order")
			}
		}
	}

	return order, nil
}

func orderCacheKey(email, sessionID string) string {
	return fmt.Sprintf("order:%s:%s", email, sessionID)
}
