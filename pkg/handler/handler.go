package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/pkg/commerce"
	"github.com/juneof/promo-engine/pkg/lifecycle"
)

// visitorHeader carries the durable visitor identity used for dismissal
// persistence. Sessions without it fall back to the session id, which
// limits dismissals to the lifetime of that session.
const visitorHeader = "X-Visitor-ID"

// PreorderSaver captures pre-order interest in the CMS.
type PreorderSaver interface {
	SavePreorderInterest(ctx context.Context, email, productURL string) (bool, error)
}

// OrderLookup resolves an order by its customer-facing name.
type OrderLookup interface {
	OrderStatusByName(ctx context.Context, name, email string) (*commerce.OrderStatus, error)
}

// Handler binds the modal lifecycle and commerce operations to HTTP routes.
// preorders and orders may be nil when the corresponding backend is not
// configured; their routes then answer 503.
type Handler struct {
	manager       *lifecycle.Manager
	preorders     PreorderSaver
	orders        OrderLookup
	webhookSecret string
}

// New creates the HTTP handler set.
func New(manager *lifecycle.Manager, preorders PreorderSaver, orders OrderLookup, webhookSecret string) *Handler {
	return &Handler{
		manager:       manager,
		preorders:     preorders,
		orders:        orders,
		webhookSecret: webhookSecret,
	}
}

// Router mounts all routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/navigate", h.navigate)
			r.Post("/product-context", h.productContext)
			r.Get("/modal", h.modal)
			r.Post("/close", h.closeModal)
		})
		r.Post("/preorder", h.preorder)
		r.Get("/orders/{name}/status", h.orderStatus)
		r.Post("/webhooks/orders", h.orderWebhook)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
