package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// apiVersion pins the commerce GraphQL API version.
const apiVersion = "2025-07"

// Options configures the commerce platform client.
type Options struct {
	// StoreDomain is the shop's myshopify-style domain.
	StoreDomain string
	// AdminToken authenticates Admin API calls (orders).
	AdminToken string
	// StorefrontToken authenticates Storefront API calls (availability).
	StorefrontToken string
	// BaseURL overrides the https://<domain> endpoint, used in tests.
	BaseURL string

	HTTPClient *http.Client
	MaxRetries int
}

// Client speaks GraphQL to the commerce platform's Admin and Storefront
// APIs.
type Client struct {
	opts    Options
	baseURL string
	client  *http.Client
}

// NewClient creates a commerce client.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://" + opts.StoreDomain
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{opts: opts, baseURL: baseURL, client: client}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// adminQuery posts a GraphQL document to the Admin API.
func (c *Client) adminQuery(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	endpoint := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, apiVersion)
	headers := map[string]string{"X-Shopify-Access-Token": c.opts.AdminToken}
	return c.query(ctx, endpoint, headers, query, variables, out)
}

// storefrontQuery posts a GraphQL document to the Storefront API.
func (c *Client) storefrontQuery(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	endpoint := fmt.Sprintf("%s/api/%s/graphql.json", c.baseURL, apiVersion)
	headers := map[string]string{"X-Shopify-Storefront-Access-Token": c.opts.StorefrontToken}
	return c.query(ctx, endpoint, headers, query, variables, out)
}

func (c *Client) query(ctx context.Context, endpoint string, headers map[string]string, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode graphql request: %w", err)
	}

	maxRetries := c.opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		res, err := c.client.Do(req)
		if err != nil {
			logrus.Warnf("commerce query failed: %v, retrying...", err)
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
			logrus.Warnf("commerce query returned %d, retrying...", res.StatusCode)
			return fmt.Errorf("commerce API returned status %d", res.StatusCode)
		}
		if res.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("commerce API returned status %d", res.StatusCode))
		}

		body, err = io.ReadAll(res.Body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return err
	}

	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode graphql response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", resp.Errors[0].Message)
	}
	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("failed to decode graphql data: %w", err)
		}
	}
	return nil
}
