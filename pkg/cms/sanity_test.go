package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/juneof/promo-engine/pkg/route"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*SanityClient, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewSanityClient(SanityOptions{
		ProjectID:  "testproj",
		Dataset:    "production",
		APIVersion: "v2024-01-01",
		Token:      "test-token",
		BaseURL:    srv.URL,
		MaxRetries: 1,
	})
	return client, srv
}

func TestSanityClient_FetchRuleForRoute(t *testing.T) {
	var gotQuery string
	var gotVariants []string
	var gotHandle, gotIsProductPage, gotAuth string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v2024-01-01/data/query/production") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		q := r.URL.Query()
		gotQuery = q.Get("query")
		gotHandle = q.Get("$handle")
		gotIsProductPage = q.Get("$isProductPage")
		if err := json.Unmarshal([]byte(q.Get("$variants")), &gotVariants); err != nil {
			t.Errorf("failed to decode $variants: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ms":3,"result":{"_id":"modal-1","enabled":true,"priority":5,"slugs":["product/juneof-jacket"],"heading":"be the first"}}`))
	})

	rule, err := client.FetchRuleForRoute(context.Background(), route.Derive("/product/juneof-jacket"))
	if err != nil {
		t.Fatalf("FetchRuleForRoute() error = %v", err)
	}
	if rule == nil || rule.ID != "modal-1" || rule.Priority != 5 {
		t.Fatalf("FetchRuleForRoute() = %+v", rule)
	}
	if rule.Payload["heading"] != "be the first" {
		t.Errorf("presentational payload not carried through: %v", rule.Payload)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.Contains(gotQuery, `_type == "preOrderModal"`) ||
		!strings.Contains(gotQuery, "order(priority desc, _createdAt desc)[0]") {
		t.Errorf("unexpected query: %s", gotQuery)
	}
	if gotHandle != `"juneof-jacket"` {
		t.Errorf("$handle = %q", gotHandle)
	}
	if gotIsProductPage != "true" {
		t.Errorf("$isProductPage = %q", gotIsProductPage)
	}

	wantVariant := "product/juneof-jacket"
	found := false
	for _, v := range gotVariants {
		if v == wantVariant {
			found = true
		}
	}
	if !found {
		t.Errorf("$variants = %v, expected to contain %q", gotVariants, wantVariant)
	}
}

func TestSanityClient_BareAPIVersionGetsPrefixed(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(func() http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{"result":null}`))
		}
	}())
	t.Cleanup(srv.Close)

	client := NewSanityClient(SanityOptions{
		ProjectID:  "testproj",
		Dataset:    "production",
		APIVersion: "2024-01-01",
		BaseURL:    srv.URL,
		MaxRetries: 1,
	})

	if _, err := client.FetchRuleForRoute(context.Background(), route.Derive("/")); err != nil {
		t.Fatalf("FetchRuleForRoute() error = %v", err)
	}
	if !strings.HasPrefix(gotPath, "/v2024-01-01/data/query/production") {
		t.Errorf("request path = %q, expected the v-prefixed API version", gotPath)
	}
}

func TestSanityClient_NullHandleOffProductPages(t *testing.T) {
	var gotHandle, gotIsProductPage string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHandle = r.URL.Query().Get("$handle")
		gotIsProductPage = r.URL.Query().Get("$isProductPage")
		w.Write([]byte(`{"result":null}`))
	})

	rule, err := client.FetchRuleForRoute(context.Background(), route.Derive("/"))
	if err != nil {
		t.Fatalf("FetchRuleForRoute() error = %v", err)
	}
	if rule != nil {
		t.Errorf("expected nil rule for null result, got %+v", rule)
	}
	if gotHandle != "null" {
		t.Errorf("$handle = %q, expected null", gotHandle)
	}
	if gotIsProductPage != "false" {
		t.Errorf("$isProductPage = %q, expected false", gotIsProductPage)
	}
}

func TestSanityClient_RetriesServerErrors(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"result":{"_id":"modal-1","enabled":true}}`))
	})

	rule, err := client.FetchRuleForRoute(context.Background(), route.Derive("/"))
	if err != nil {
		t.Fatalf("FetchRuleForRoute() error = %v", err)
	}
	if rule == nil || rule.ID != "modal-1" {
		t.Fatalf("FetchRuleForRoute() = %+v", rule)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, expected 2", attempts)
	}
}

func TestSanityClient_ClientErrorIsTerminal(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := client.FetchRuleForRoute(context.Background(), route.Derive("/")); err == nil {
		t.Fatal("expected error for 401 response")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, expected no retry on 4xx", attempts)
	}
}

func TestSanityClient_InvalidDocument(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Document without an id fails boundary validation.
		w.Write([]byte(`{"result":{"enabled":true}}`))
	})

	if _, err := client.FetchRuleForRoute(context.Background(), route.Derive("/")); err == nil {
		t.Fatal("expected error for document without id")
	}
}
