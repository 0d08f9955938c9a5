package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/juneof/promo-engine/pkg/commerce"
	"github.com/juneof/promo-engine/pkg/common"
	"github.com/juneof/promo-engine/pkg/metrics"
)

const webhookSignatureHeader = "X-Shopify-Hmac-Sha256"

// orderWebhook receives order creation webhooks from the commerce platform.
// Deliveries that fail HMAC verification are rejected before the payload is
// parsed.
func (h *Handler) orderWebhook(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.OrderWebhook")
	defer scope.Finish()

	if h.webhookSecret == "" {
		writeError(w, http.StatusServiceUnavailable, "webhook secret is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body.Close()
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("read_error").Inc()
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	signature := r.Header.Get(webhookSignatureHeader)
	if !commerce.VerifyWebhookSignature(body, signature, h.webhookSecret) {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		scope.Log.Warnf("rejected order webhook with bad signature")
		writeError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var order commerce.WebhookOrder
	if err := json.Unmarshal(body, &order); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("invalid_payload").Inc()
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("accepted").Inc()
	scope.Log.Infof("order webhook received: order=%d total=%s %s items=%d",
		order.OrderNumber, order.TotalPrice, order.Currency, len(order.LineItems))

	w.WriteHeader(http.StatusOK)
}
