package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Diner identifies the ordering customer to the factory.
type Diner struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FulfillmentResult is the factory's response for a fulfilled order.
type FulfillmentResult struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

// Fulfiller sends placed orders to the fulfillment factory.
type Fulfiller interface {
	Fulfill(ctx context.Context, diner Diner, order Order) (FulfillmentResult, error)
}

// FactoryClient is the HTTP Fulfiller.
type FactoryClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	metrics Metrics
}

// NewFactoryClient constructs a FactoryClient.
func NewFactoryClient(baseURL, apiKey string, metrics Metrics) *FactoryClient {
	return &FactoryClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		metrics: metrics,
	}
}

// Fulfill posts the order to the factory and returns its verification JWT.
func (c *FactoryClient) Fulfill(ctx context.Context, diner Diner, order Order) (FulfillmentResult, error) {
	payload, err := json.Marshal(struct {
		Diner Diner `json:"diner"`
		Order Order `json:"order"`
	}{Diner: diner, Order: order})
	if err != nil {
		return FulfillmentResult{}, fmt.Errorf("encode factory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/order", bytes.NewReader(payload))
	if err != nil {
		return FulfillmentResult{}, fmt.Errorf("build factory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	res, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.FactoryLatency(time.Since(start))
	}
	if err != nil {
		return FulfillmentResult{}, fmt.Errorf("factory request: %w", err)
	}
	defer res.Body.Close()

	var result FulfillmentResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return FulfillmentResult{}, fmt.Errorf("decode factory response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return result, fmt.Errorf("factory responded %d", res.StatusCode)
	}
	return result, nil
}
