package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards, router}
}

// UpsertOrder writes the order keyed by (email, session_id). A redelivered
// event replaces every payload column in one statement, so a duplicate write
// can never leave a partially updated row; created_at keeps the first-write
// timestamp.
func (r *OrderRepository) UpsertOrder(ctx context.Context, order *entity.Order) error {
	dbIndex := r.router.GetShard(order.Email)
	db := r.dbShards[dbIndex]

	images, err := json.Marshal(order.Images)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (email, session_id, amount, amount_shipping, images, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			amount = VALUES(amount),
			amount_shipping = VALUES(amount_shipping),
			images = VALUES(images)`

	_, err = db.ExecContext(ctx, query,
		order.Email, order.SessionID, order.Amount, order.AmountShipping, images, order.CreatedAt)
	return err
}

// GetOrder returns the order for the exact (email, session_id) pair or
// entity.ErrOrderNotFound.
func (r *OrderRepository) GetOrder(ctx context.Context, email, sessionID string) (*entity.Order, error) {
	query := `SELECT email, session_id, amount, amount_shipping, images, created_at FROM orders WHERE email = ? AND session_id = ?`

	dbIndex := r.router.GetShard(email)
	db := r.dbShards[dbIndex]

	order := &entity.Order{}
	var images []byte
	err := db.QueryRowContext(ctx, query, email, sessionID).
		Scan(&order.Email, &order.SessionID, &order.Amount, &order.AmountShipping, &images, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entity.ErrOrderNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(images, &order.Images); err != nil {
		return nil, err
	}

	return order, nil
}
