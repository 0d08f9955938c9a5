package cms

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PreorderDocID derives the deterministic document id for a pre-order
// interest, so the same email/product pair is captured at most once.
func PreorderDocID(email, productURL string) string {
	key := normalizeEmail(email) + "|" + strings.TrimSpace(productURL)
	sum := sha1.Sum([]byte(key))
	return "preorder-" + hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SavePreorderInterest records a pre-order interest document in the CMS.
// It reports whether a new document was created; a repeat signup for the
// same email/product pair is idempotent and reports false.
func (c *SanityClient) SavePreorderInterest(ctx context.Context, email, productURL string) (bool, error) {
	email = normalizeEmail(email)
	docID := PreorderDocID(email, productURL)

	exists, err := c.preorderExists(ctx, docID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	doc := map[string]interface{}{
		"_id":       docID,
		"_type":     "preorder",
		"email":     email,
		"url":       productURL,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(map[string]interface{}{
		"mutations": []map[string]interface{}{{"createIfNotExists": doc}},
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/data/mutate/%s", c.baseURL, c.opts.APIVersion, c.opts.Dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("preorder mutation failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("preorder mutation returned status %d", res.StatusCode)
	}
	return true, nil
}

func (c *SanityClient) preorderExists(ctx context.Context, docID string) (bool, error) {
	params := url.Values{}
	params.Set("query", `*[_type == "preorder" && _id == $id][0]._id`)
	params.Set("$id", fmt.Sprintf("%q", docID))

	endpoint := fmt.Sprintf("%s/%s/data/query/%s?%s",
		c.baseURL, c.opts.APIVersion, c.opts.Dataset, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return false, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("failed to decode query response: %w", err)
	}
	return len(resp.Result) > 0 && string(resp.Result) != "null", nil
}
