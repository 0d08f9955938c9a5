package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/juneof/promo-engine/pkg/common"
)

// orderStatus answers "where is my order" lookups by order name + email.
func (h *Handler) orderStatus(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.OrderStatus")
	defer scope.Finish()

	if h.orders == nil {
		writeError(w, http.StatusServiceUnavailable, "order lookup is not configured")
		return
	}

	name := chi.URLParam(r, "name")
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if name == "" || email == "" {
		writeError(w, http.StatusBadRequest, "order name and email are required")
		return
	}

	status, err := h.orders.OrderStatusByName(scope.Ctx, name, email)
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("order lookup failed: %v", err)
		writeError(w, http.StatusBadGateway, "order lookup failed")
		return
	}
	if status == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
