package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/entity"
)

const (
	catalogCacheKey  = "catalog:products"
	catalogCacheTTL  = 60 * time.Second
	catalogAttempts  = 3
	catalogHTTPLimit = 10 * time.Second
)

// CatalogService proxies the upstream product catalog. The upstream is
// interchangeable; callers always get a defined (possibly empty) product
// list or an error, never a panic across the boundary.
type CatalogService struct {
	upstreamURL string
	client      *http.Client
	rdb         *redis.Client // nil disables the cache
	retryDelay  time.Duration
}

// NewCatalogService creates a new instance of CatalogService. A nil client
// gets a default with a bounded request timeout.
func NewCatalogService(upstreamURL string, client *http.Client, rdb *redis.Client) *CatalogService {
	if client == nil {
		client = &http.Client{Timeout: catalogHTTPLimit}
	}
	return &CatalogService{
		upstreamURL: upstreamURL,
		client:      client,
		rdb:         rdb,
		retryDelay:  1 * time.Second,
	}
}

// GetProducts fetches the product list, retrying transient upstream failures
// with linear backoff before surfacing the last error.
func (s *CatalogService) GetProducts(ctx context.Context) ([]entity.Product, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, catalogCacheKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Msg("Error reading products from cache")
		}
		if cached != "" {
			var products []entity.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				return products, nil
			}
			logger.Warn().Msg("Discarding malformed cached product list")
		}
	}

	var lastErr error
	for attempt := 1; attempt <= catalogAttempts; attempt++ {
		if attempt > 1 {
			logger.Warn().Int("attempt", attempt).Msg("Retrying product fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * s.retryDelay):
			}
		}

		products, err := s.fetchProducts(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		if s.rdb != nil {
			if raw, err := json.Marshal(products); err == nil {
				if err := s.rdb.Set(ctx, catalogCacheKey, raw, catalogCacheTTL).Err(); err != nil {
					logger.Error().Err(err).Msg("Error caching products")
				}
			}
		}
		logger.Info().Int("count", len(products)).Msg("Fetched products from upstream")
		return products, nil
	}

	logger.Error().Err(lastErr).Int("attempts", catalogAttempts).Msg("Error fetching products")
	return nil, fmt.Errorf("fetch products after %d attempts: %w", catalogAttempts, lastErr)
}

func (s *CatalogService) fetchProducts(ctx context.Context) ([]entity.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.upstreamURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog upstream returned %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("catalog upstream returned content-type %q", ct)
	}

	var payload struct {
		Products []entity.Product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Products == nil {
		return nil, errors.New("catalog response missing products list")
	}

	for i := range payload.Products {
		product := &payload.Products[i]
		if product.Image != "" {
			continue
		}
		// Upstream sends a thumbnail plus a gallery; the storefront wants one
		// display image.
		if product.Thumbnail != "" {
			product.Image = product.Thumbnail
		} else if len(product.Images) > 0 {
			product.Image = product.Images[0]
		}
	}

	return payload.Products, nil
}
