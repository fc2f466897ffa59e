// Package shopify is a thin client for the Shopify Admin GraphQL API,
// covering the three operation groups the catalog pipeline needs: metafield
// definition listing, collection create/update, and batched metafield
// set/delete. Requests are paced with a token-bucket limiter so a long
// import does not trip the API's cost throttle.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultAPIVersion is used when the config does not pin one.
const DefaultAPIVersion = "2024-10"

// Client talks to one shop's Admin GraphQL endpoint.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config holds the connection settings for one shop.
type Config struct {
	// Store is the myshopify domain, e.g. "example.myshopify.com".
	Store string

	// AccessToken is the Admin API access token.
	AccessToken string

	// APIVersion pins the Admin API version (default DefaultAPIVersion).
	APIVersion string

	// RequestsPerSecond paces outbound requests (default 2).
	RequestsPerSecond float64

	// Timeout is the per-request HTTP timeout (default 30s).
	Timeout time.Duration
}

// NewClient creates a Client. Store and AccessToken are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Store == "" {
		return nil, fmt.Errorf("shopify: store domain is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("shopify: access token is required")
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint:   fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.Store, version),
		token:      cfg.AccessToken,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// execute posts one GraphQL operation and unmarshals the data payload into
// out. GraphQL-level errors are returned as a single joined error.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call admin api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope graphQLResponse
	if jsonErr := json.Unmarshal(respBody, &envelope); jsonErr != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("admin api returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("parse response: %w", jsonErr)
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("admin api error: %s", strings.Join(msgs, "; "))
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin api returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}

	return nil
}
