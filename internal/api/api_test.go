package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
)

type stubCheckout struct {
	lastReq *entity.CheckoutRequest
	session payment.Session
	err     error
}

func (s *stubCheckout) CreateSession(_ context.Context, req *entity.CheckoutRequest) (payment.Session, error) {
	s.lastReq = req
	return s.session, s.err
}

type stubFulfiller struct {
	payload []byte
	sig     string
	err     error
}

func (s *stubFulfiller) HandleEvent(_ context.Context, payload []byte, sigHeader string) error {
	s.payload = payload
	s.sig = sigHeader
	return s.err
}

type stubOrders struct {
	order *entity.Order
	err   error
}

func (s *stubOrders) GetOrder(context.Context, string, string) (*entity.Order, error) {
	return s.order, s.err
}

type stubCatalog struct {
	products []entity.Product
	err      error
}

func (s *stubCatalog) GetProducts(context.Context) ([]entity.Product, error) {
	return s.products, s.err
}

func newHandler(checkout SessionCreator, orders OrderGetter, webhook Fulfiller, catalog Catalog) *StorefrontHandler {
	if checkout == nil {
		checkout = &stubCheckout{}
	}
	if orders == nil {
		orders = &stubOrders{err: entity.ErrOrderNotFound}
	}
	if webhook == nil {
		webhook = &stubFulfiller{}
	}
	if catalog == nil {
		catalog = &stubCatalog{}
	}
	return NewStorefrontHandler(checkout, orders, webhook, catalog)
}

func doRequest(h *StorefrontHandler, register func(*echo.Echo, *StorefrontHandler), req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	register(e, h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateCheckoutSession(t *testing.T) {
	checkout := &stubCheckout{session: payment.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	h := newHandler(checkout, nil, nil, nil)

	body := `{"email":"buyer@example.com","items":[{"id":1,"title":"Widget","price":19.995,"image":"a.png"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.POST("/api/create-checkout-session", h.CreateCheckoutSession)
	}, req)

	assert.Equal(t, 200, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cs_1", resp["id"])
	assert.Equal(t, "https://pay.example/cs_1", resp["url"])
	require.NotNil(t, checkout.lastReq)
	assert.Equal(t, "buyer@example.com", checkout.lastReq.Email)
}

func TestCreateCheckoutSessionEmptyBasket(t *testing.T) {
	h := newHandler(&stubCheckout{err: entity.ErrEmptyBasket}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(`{"items":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.POST("/api/create-checkout-session", h.CreateCheckoutSession)
	}, req)

	assert.Equal(t, 400, rec.Code)
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	h := newHandler(&stubCheckout{err: errors.New("provider outage")}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session",
		strings.NewReader(`{"items":[{"id":1,"title":"Widget","price":1}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.POST("/api/create-checkout-session", h.CreateCheckoutSession)
	}, req)

	assert.Equal(t, 500, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to create checkout session")
}

func TestWebhookStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"processed", nil, 200},
		{"bad signature", payment.ErrInvalidSignature, 400},
		{"missing identity", entity.ErrMissingIdentity, 400},
		{"write failure", errors.New("store unavailable"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fulfiller := &stubFulfiller{err: tt.err}
			h := newHandler(nil, nil, fulfiller, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{"type":"x"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")

			rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
				e.POST("/api/webhook", h.Webhook)
			}, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"received":true}`, rec.Body.String())
				assert.Equal(t, `{"type":"x"}`, string(fulfiller.payload))
				assert.Equal(t, "t=1,v1=abc", fulfiller.sig)
			}
		})
	}
}

func TestGetOrderFound(t *testing.T) {
	created := time.Unix(1700000000, 0).UTC()
	orders := &stubOrders{order: &entity.Order{
		SessionID: "cs_1", Email: "buyer@example.com",
		Amount: 5500, AmountShipping: 500,
		Images: []string{"a.png", "b.png"}, CreatedAt: created,
	}}
	h := newHandler(nil, orders, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/order?session_id=cs_1&email=buyer@example.com", nil)
	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.GET("/api/order", h.GetOrder)
	}, req)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{
		"id": "cs_1",
		"amount": 5500,
		"amount_shipping": 500,
		"images": ["a.png", "b.png"],
		"timestamp": {"seconds": 1700000000}
	}`, rec.Body.String())
}

func TestGetOrderMissingParams(t *testing.T) {
	h := newHandler(nil, nil, nil, nil)

	for _, target := range []string{"/api/order", "/api/order?session_id=cs_1", "/api/order?email=b@e.c"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
			e.GET("/api/order", h.GetOrder)
		}, req)

		assert.Equal(t, 400, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Missing session_id or email")
	}
}

func TestGetOrderNotFound(t *testing.T) {
	h := newHandler(nil, &stubOrders{err: entity.ErrOrderNotFound}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/order?session_id=cs_1&email=b@e.c", nil)
	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.GET("/api/order", h.GetOrder)
	}, req)

	assert.Equal(t, 404, rec.Code)
	assert.JSONEq(t, `{"error":"Order not found"}`, rec.Body.String())
}

func TestGetOrderInternalError(t *testing.T) {
	h := newHandler(nil, &stubOrders{err: errors.New("db down")}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/order?session_id=cs_1&email=b@e.c", nil)
	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.GET("/api/order", h.GetOrder)
	}, req)

	assert.Equal(t, 500, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch order"}`, rec.Body.String())
}

func TestGetOrderTokenEmailMismatch(t *testing.T) {
	const secret = "test-secret"
	orders := &stubOrders{order: &entity.Order{SessionID: "cs_1", Email: "a@example.com"}}
	h := newHandler(nil, orders, nil, nil)

	token, err := auth.SignToken(secret, "Buyer", "a@example.com", time.Hour)
	require.NoError(t, err)

	register := func(e *echo.Echo, h *StorefrontHandler) {
		e.GET("/api/order", h.GetOrder, echojwt.WithConfig(auth.MiddlewareConfig(secret)))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/order?session_id=cs_1&email=b@example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(h, register, req)
	assert.Equal(t, 403, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/order?session_id=cs_1&email=a@example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(h, register, req)
	assert.Equal(t, 200, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/order?session_id=cs_1&email=a@example.com", nil)
	rec = doRequest(h, register, req)
	assert.Equal(t, 401, rec.Code)
}

func TestGetProducts(t *testing.T) {
	catalog := &stubCatalog{products: []entity.Product{{ID: 1, Title: "Widget", Image: "a.png"}}}
	h := newHandler(nil, nil, nil, catalog)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.GET("/api/products", h.GetProducts)
	}, req)

	assert.Equal(t, 200, rec.Code)
	var products []entity.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Title)
}

func TestGetProductsUpstreamFailure(t *testing.T) {
	h := newHandler(nil, nil, nil, &stubCatalog{err: errors.New("upstream down")})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.GET("/api/products", h.GetProducts)
	}, req)

	assert.Equal(t, 503, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch products after retries","products":[]}`, rec.Body.String())
}

func TestGetProductsNilListRendersEmpty(t *testing.T) {
	h := newHandler(nil, nil, nil, &stubCatalog{})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := doRequest(h, func(e *echo.Echo, h *StorefrontHandler) {
		e.GET("/api/products", h.GetProducts)
	}, req)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
