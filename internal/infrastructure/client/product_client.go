package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketchat/pkg/errors"
)

// ProductSummary is the slice of the product catalog this service needs:
// enough to resolve the seller and to enrich a room response.
type ProductSummary struct {
	ProductID    string `json:"product_id"`
	SellerID     string `json:"seller_id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	ThumbnailURL string `json:"thumbnail_url"`
	TradeStatus  string `json:"trade_status"`
}

// envelope mirrors the upstream service's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type ProductClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProductClient builds a product-lookup client with a bounded timeout.
// Callers on the room-creation path fail closed when the lookup times out.
func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	return &ProductClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ProductClient) GetProductSummary(ctx context.Context, productID string) (*ProductSummary, error) {
	url := fmt.Sprintf("%s/v1/products/%s/summary", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Internal("Failed to build product lookup request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Internal("Product lookup failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFound("Product", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Internal(fmt.Sprintf("Product lookup returned status %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Internal("Failed to decode product lookup response", err)
	}
	if !env.Success || env.Data == nil {
		return nil, errors.NotFound("Product", nil)
	}

	var summary ProductSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		return nil, errors.Internal("Failed to parse product summary", err)
	}

	return &summary, nil
}
