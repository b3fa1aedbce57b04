package api

import (
	"context"
	"errors"
	"io"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/auth"
	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
)

// SessionCreator initiates hosted checkout sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, req *entity.CheckoutRequest) (payment.Session, error)
}

// Fulfiller processes raw payment completion events.
type Fulfiller interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

// OrderGetter reads order records by (email, session_id).
type OrderGetter interface {
	GetOrder(ctx context.Context, email, sessionID string) (*entity.Order, error)
}

// Catalog lists the products to render.
type Catalog interface {
	GetProducts(ctx context.Context) ([]entity.Product, error)
}

type StorefrontHandler struct {
	checkout SessionCreator
	orders   OrderGetter
	webhook  Fulfiller
	catalog  Catalog
}

func NewStorefrontHandler(checkout SessionCreator, orders OrderGetter, webhook Fulfiller, catalog Catalog) *StorefrontHandler {
	return &StorefrontHandler{
		checkout: checkout,
		orders:   orders,
		webhook:  webhook,
		catalog:  catalog,
	}
}

// CreateCheckoutSession creates a hosted checkout session --> POST /api/create-checkout-session
func (h *StorefrontHandler) CreateCheckoutSession(c echo.Context) error {
	req := entity.CheckoutRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	// A verified token identity wins over whatever the client typed.
	if email := auth.TokenEmail(c); email != "" {
		req.Email = email
	}

	sess, err := h.checkout.CreateSession(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, entity.ErrEmptyBasket) {
			return c.JSON(400, map[string]string{"error": "Basket is empty"})
		}
		return c.JSON(500, map[string]string{"error": "Failed to create checkout session"})
	}

	return c.JSON(200, map[string]string{"id": sess.ID, "url": sess.URL})
}

// Webhook receives payment completion events --> POST /api/webhook
func (h *StorefrontHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	sig := c.Request().Header.Get("Stripe-Signature")

	if err := h.webhook.HandleEvent(c.Request().Context(), body, sig); err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			return c.JSON(400, map[string]string{"error": "Webhook verification failed"})
		case errors.Is(err, entity.ErrMissingIdentity):
			return c.JSON(400, map[string]string{"error": "Email not found in session metadata"})
		default:
			// Write failures get a 5xx so the provider redelivers.
			return c.JSON(500, map[string]string{"error": "Failed to fulfill order"})
		}
	}

	return c.JSON(200, map[string]bool{"received": true})
}

type orderTimestamp struct {
	Seconds int64 `json:"seconds"`
}

type orderResponse struct {
	ID             string         `json:"id"`
	Amount         int64          `json:"amount"`
	AmountShipping int64          `json:"amount_shipping"`
	Images         []string       `json:"images"`
	Timestamp      orderTimestamp `json:"timestamp"`
}

// GetOrder looks up one order record --> GET /api/order?session_id=...&email=...
func (h *StorefrontHandler) GetOrder(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	email := c.QueryParam("email")
	if sessionID == "" || email == "" {
		return c.JSON(400, map[string]string{"error": "Missing session_id or email"})
	}

	if tokenEmail := auth.TokenEmail(c); tokenEmail != "" && tokenEmail != email {
		return c.JSON(403, map[string]string{"error": "Email does not match signed-in user"})
	}

	order, err := h.orders.GetOrder(c.Request().Context(), email, sessionID)
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) {
			return c.JSON(404, map[string]string{"error": "Order not found"})
		}
		return c.JSON(500, map[string]string{"error": "Failed to fetch order"})
	}

	images := order.Images
	if images == nil {
		images = []string{}
	}
	return c.JSON(200, orderResponse{
		ID:             order.SessionID,
		Amount:         order.Amount,
		AmountShipping: order.AmountShipping,
		Images:         images,
		Timestamp:      orderTimestamp{Seconds: order.CreatedAt.Unix()},
	})
}

// GetProducts lists catalog products --> GET /api/products
func (h *StorefrontHandler) GetProducts(c echo.Context) error {
	products, err := h.catalog.GetProducts(c.Request().Context())
	if err != nil {
		return c.JSON(503, map[string]interface{}{
			"error":    "Failed to fetch products after retries",
			"products": []entity.Product{},
		})
	}
	if products == nil {
		products = []entity.Product{}
	}
	return c.JSON(200, products)
}
