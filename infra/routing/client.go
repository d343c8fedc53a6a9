// Package routing implements the core routing.Router contract against an
// HTTP travel-time service.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chauffeurjet/dispatch/auth"
	corerouting "github.com/chauffeurjet/dispatch/core/routing"
	"github.com/chauffeurjet/dispatch/infra/logger"
)

// Config defines the routing service endpoint. When OAuth is set the client
// authenticates with a client-credentials token instead of the static key.
type Config struct {
	BaseURL        string     `json:"base_url"`
	APIKey         string     `json:"api_key"`
	TimeoutSeconds int        `json:"timeout_seconds"`
	OAuth          *auth.Conf `json:"oauth,omitempty"`
}

// Client queries the routing service for point-to-point travel times.
type Client struct {
	baseURL string
	apiKey  string
	cred    *auth.ClientCred
	client  *http.Client
	log     logger.Logger
}

// NewClient creates a routing client for the configured endpoint.
func NewClient(cfg Config) *Client {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     logger.New("routing-client"),
	}
	if cfg.OAuth != nil {
		c.cred = auth.NewClientCred(*cfg.OAuth)
	}
	return c
}

type routeResponse struct {
	DurationMinutes int     `json:"duration_minutes"`
	DistanceKM      float64 `json:"distance_km"`
}

// TravelTime asks the service for the estimate between two locations.
// Transport failures and server errors map to routing.ErrUnavailable so the
// feasibility checker can degrade instead of failing.
func (c *Client) TravelTime(ctx context.Context, origin, destination string) (corerouting.Estimate, error) {
	if corerouting.SameLocation(origin, destination) {
		return corerouting.Estimate{}, nil
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/route?"+q.Encode(), nil)
	if err != nil {
		return corerouting.Estimate{}, fmt.Errorf("create request: %w", err)
	}
	switch {
	case c.cred != nil:
		if err := c.cred.SetAuthHeader(req); err != nil {
			c.log.Warnf("token fetch failed: %v", err)
			return corerouting.Estimate{}, fmt.Errorf("%w: %v", corerouting.ErrUnavailable, err)
		}
	case c.apiKey != "":
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warnf("routing request failed: %v", err)
		return corerouting.Estimate{}, fmt.Errorf("%w: %v", corerouting.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return corerouting.Estimate{}, fmt.Errorf("%w: status %d", corerouting.ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return corerouting.Estimate{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return corerouting.Estimate{}, fmt.Errorf("decode response: %w", err)
	}
	return corerouting.Estimate{Minutes: route.DurationMinutes, DistanceKM: route.DistanceKM}, nil
}
