package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"storefront-service/internal/api"
	"storefront-service/internal/auth"
	"storefront-service/internal/config"
	"storefront-service/internal/payment"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/internal/sharding"
	"storefront-service/migrations"
)

const defaultOrdersDSN = "root:@tcp(127.0.0.1:3306)/storefront"
const defaultCatalogURL = "https://dummyjson.com/products?limit=20"
const defaultHost = "http://localhost:3000"

func connectDB(dsn string) (*sql.DB, error) {
	if !strings.Contains(dsn, "?") {
		// Scanning created_at into time.Time needs parseTime.
		dsn += "?parseTime=true"
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to orders DB")
				return db, nil
			}
		}
		log.Printf("Retry %d: Failed to connect to orders DB: %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to orders DB after retries: %v", err)
}

func main() {
	dsns := os.Getenv("ORDERS_DB_DSNS")
	if dsns == "" {
		dsns = defaultOrdersDSN
	}

	var dbShards []*sql.DB
	for _, dsn := range strings.Split(dsns, ",") {
		db, err := connectDB(strings.TrimSpace(dsn))
		if err != nil {
			panic(err)
		}
		dbShards = append(dbShards, db)
	}

	if err := migrations.AutoMigrateOrders(3, dbShards...); err != nil {
		log.Fatalf("Failed to migrate orders table: %v", err)
	}

	rdb := config.NewRedisClient()
	kafkaWriter := config.NewKafkaWriter("order-events")
	router := sharding.NewShardRouter(len(dbShards))

	host := os.Getenv("HOST")
	if host == "" {
		host = defaultHost
	}
	catalogURL := os.Getenv("CATALOG_URL")
	if catalogURL == "" {
		catalogURL = defaultCatalogURL
	}

	provider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		SigningSecret:  os.Getenv("STRIPE_SIGNING_SECRET"),
		Currency:       os.Getenv("STRIPE_CURRENCY"),
		ShippingRateID: os.Getenv("STRIPE_SHIPPING_RATE"),
	})

	orderRepo := repository.NewOrderRepository(dbShards, router)
	checkoutService := service.NewCheckoutService(provider, host)
	fulfillmentService := service.NewFulfillmentService(orderRepo, provider, kafkaWriter)
	orderService := service.NewOrderService(orderRepo, rdb)
	catalogService := service.NewCatalogService(catalogURL, nil, rdb)
	handler := api.NewStorefrontHandler(checkoutService, orderService, fulfillmentService, catalogService)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     40,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	// The webhook route stays outside the JWT group: its caller is the
	// payment provider, authenticated by signature instead.
	e.POST("/api/webhook", handler.Webhook)
	e.GET("/api/products", handler.GetProducts)

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		// Checkout may be anonymous; order lookup never is.
		e.POST("/api/create-checkout-session", handler.CreateCheckoutSession,
			echojwt.WithConfig(auth.OptionalMiddlewareConfig(secret)))
		e.GET("/api/order", handler.GetOrder,
			echojwt.WithConfig(auth.MiddlewareConfig(secret)))
	} else {
		log.Printf("WARN: JWT_SECRET not set, purchaser identity is taken from the request unverified")
		e.POST("/api/create-checkout-session", handler.CreateCheckoutSession)
		e.GET("/api/order", handler.GetOrder)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "storefront-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
