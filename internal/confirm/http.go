package confirm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"storefront-service/internal/entity"
)

// HTTPLookup returns a LookupFunc backed by the storefront's order lookup
// endpoint. token is optional; when set it is sent as a bearer token.
func HTTPLookup(baseURL string, client *http.Client, token string) LookupFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context, email, sessionID string) (*entity.Order, error) {
		query := url.Values{}
		query.Set("session_id", sessionID)
		query.Set("email", email)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/order?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, entity.ErrOrderNotFound
		}
		if resp.StatusCode != http.StatusOK {
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
				return nil, fmt.Errorf("order lookup: %s", body.Error)
			}
			return nil, fmt.Errorf("order lookup returned %d", resp.StatusCode)
		}

		var payload struct {
			ID             string   `json:"id"`
			Amount         int64    `json:"amount"`
			AmountShipping int64    `json:"amount_shipping"`
			Images         []string `json:"images"`
			Timestamp      struct {
				Seconds int64 `json:"seconds"`
			} `json:"timestamp"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, err
		}

		return &entity.Order{
			SessionID:      payload.ID,
			Email:          email,
			Amount:         payload.Amount,
			AmountShipping: payload.AmountShipping,
			Images:         payload.Images,
			CreatedAt:      time.Unix(payload.Timestamp.Seconds, 0).UTC(),
		}, nil
	}
}
