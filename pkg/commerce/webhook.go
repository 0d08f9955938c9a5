package commerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifyWebhookSignature checks an order webhook's HMAC-SHA256 signature
// (base64, as delivered in the X-Shopify-Hmac-Sha256 header) against the
// shared webhook secret using a constant-time comparison.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computed := mac.Sum(nil)

	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(provided, computed)
}

// WebhookOrder is the subset of the order webhook payload the engine
// records.
type WebhookOrder struct {
	ID          int64  `json:"id"`
	OrderNumber int64  `json:"order_number"`
	TotalPrice  string `json:"total_price"`
	Currency    string `json:"currency"`
	LineItems   []struct {
		Name     string `json:"name"`
		Price    string `json:"price"`
		Quantity int    `json:"quantity"`
	} `json:"line_items"`
	CancelReason string `json:"cancel_reason"`
}
