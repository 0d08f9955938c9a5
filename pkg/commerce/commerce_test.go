package commerce

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestCommerce(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Options{
		StoreDomain:     "juneof.myshopify.com",
		AdminToken:      "admin-token",
		StorefrontToken: "storefront-token",
		BaseURL:         srv.URL,
		MaxRetries:      1,
	})
}

func TestProductAvailability(t *testing.T) {
	var gotToken string
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/2025-07/graphql.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotToken = r.Header.Get("X-Shopify-Storefront-Access-Token")

		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Variables["handle"] != "juneof-jacket" {
			t.Errorf("handle = %v", req.Variables["handle"])
		}

		w.Write([]byte(`{"data":{"productByHandle":{"handle":"juneof-jacket","availableForSale":false}}}`))
	})

	available, err := c.ProductAvailability(context.Background(), "juneof-jacket")
	if err != nil {
		t.Fatalf("ProductAvailability() error = %v", err)
	}
	if available == nil || *available {
		t.Errorf("available = %v, expected false", available)
	}
	if gotToken != "storefront-token" {
		t.Errorf("storefront token = %q", gotToken)
	}
}

func TestProductAvailability_UnknownProduct(t *testing.T) {
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"productByHandle":null}}`))
	})

	available, err := c.ProductAvailability(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("ProductAvailability() error = %v", err)
	}
	if available != nil {
		t.Errorf("available = %v, expected nil for unknown product", available)
	}

	if _, err := c.ProductAvailability(context.Background(), ""); err == nil {
		t.Error("expected error for empty handle")
	}
}

func TestOrderStatuses(t *testing.T) {
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/api/2025-07/graphql.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "admin-token" {
			t.Errorf("admin token = %q", got)
		}

		w.Write([]byte(`{"data":{"nodes":[
			{"id":"gid://shopify/Order/1","cancelledAt":"","displayFulfillmentStatus":"FULFILLED","displayFinancialStatus":"PAID",
			 "fulfillments":[{"trackingInfo":[{"number":"TRACK-1"},{"number":""}]}]},
			{"id":"gid://shopify/Order/2","cancelledAt":"2026-08-01T00:00:00Z","cancelReason":"CUSTOMER","displayFulfillmentStatus":"UNFULFILLED","displayFinancialStatus":"REFUNDED","fulfillments":[]},
			null
		]}}`))
	})

	statuses, err := c.OrderStatuses(context.Background(), []string{"gid://shopify/Order/1", "gid://shopify/Order/2"})
	if err != nil {
		t.Fatalf("OrderStatuses() error = %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("statuses = %v", statuses)
	}

	first := statuses["gid://shopify/Order/1"]
	if first.IsCancelled || first.DisplayFulfillmentStatus != "FULFILLED" {
		t.Errorf("first order = %+v", first)
	}
	if len(first.TrackingNumbers) != 1 || first.TrackingNumbers[0] != "TRACK-1" {
		t.Errorf("tracking numbers = %v", first.TrackingNumbers)
	}

	second := statuses["gid://shopify/Order/2"]
	if !second.IsCancelled || second.CancelReason != "CUSTOMER" {
		t.Errorf("second order = %+v", second)
	}
}

func TestOrderStatuses_Empty(t *testing.T) {
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty id list")
	})

	statuses, err := c.OrderStatuses(context.Background(), nil)
	if err != nil {
		t.Fatalf("OrderStatuses() error = %v", err)
	}
	if len(statuses) != 0 {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestOrderStatusByName(t *testing.T) {
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]string `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got := req.Variables["query"]; got != "name:#1001 AND email:shopper@example.com" {
			t.Errorf("search query = %q", got)
		}

		w.Write([]byte(`{"data":{"orders":{"edges":[
			{"node":{"id":"gid://shopify/Order/7","cancelledAt":"","displayFulfillmentStatus":"IN_TRANSIT","displayFinancialStatus":"PAID",
			 "fulfillments":[{"trackingInfo":[{"number":"TRACK-7"}]}]}}
		]}}}`))
	})

	status, err := c.OrderStatusByName(context.Background(), "1001", "Shopper@Example.com ")
	if err != nil {
		t.Fatalf("OrderStatusByName() error = %v", err)
	}
	if status == nil || status.ID != "gid://shopify/Order/7" {
		t.Fatalf("status = %+v", status)
	}
	if status.DisplayFulfillmentStatus != "IN_TRANSIT" || len(status.TrackingNumbers) != 1 {
		t.Errorf("status = %+v", status)
	}
}

func TestOrderStatusByName_NotFound(t *testing.T) {
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"orders":{"edges":[]}}}`))
	})

	status, err := c.OrderStatusByName(context.Background(), "#9999", "shopper@example.com")
	if err != nil {
		t.Fatalf("OrderStatusByName() error = %v", err)
	}
	if status != nil {
		t.Errorf("status = %+v, want nil", status)
	}
}

func TestOrderStatusByName_MissingArgs(t *testing.T) {
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	if _, err := c.OrderStatusByName(context.Background(), "", "a@b.com"); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := c.OrderStatusByName(context.Background(), "#1001", ""); err == nil {
		t.Error("expected error for empty email")
	}
}

func TestQuery_GraphQLErrors(t *testing.T) {
	c := newTestCommerce(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"access denied"}]}`))
	})

	if _, err := c.ProductAvailability(context.Background(), "x"); err == nil {
		t.Error("expected graphql error surfaced")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "shared-secret"
	body := []byte(`{"id":1,"total_price":"120.00"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	valid := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookSignature(body, valid, secret) {
		t.Error("expected valid signature to verify")
	}
	if VerifyWebhookSignature(body, valid, "other-secret") {
		t.Error("signature must not verify under a different secret")
	}
	if VerifyWebhookSignature([]byte("tampered"), valid, secret) {
		t.Error("signature must not verify for a tampered body")
	}
	if VerifyWebhookSignature(body, "", secret) {
		t.Error("missing signature must not verify")
	}
	if VerifyWebhookSignature(body, "!!not-base64!!", secret) {
		t.Error("undecodable signature must not verify")
	}
	if VerifyWebhookSignature(body, valid, "") {
		t.Error("missing secret must not verify")
	}
}
