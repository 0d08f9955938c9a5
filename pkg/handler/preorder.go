package handler

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/juneof/promo-engine/pkg/common"
	"github.com/juneof/promo-engine/pkg/metrics"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type preorderRequest struct {
	Email         string `json:"email"`
	ProductHandle string `json:"productHandle"`
}

type preorderResponse struct {
	Created bool `json:"created"`
}

// preorder records a customer's interest in a pre-order product. Repeat
// submissions for the same email and product are accepted but stored once.
func (h *Handler) preorder(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.Preorder")
	defer scope.Finish()

	if h.preorders == nil {
		writeError(w, http.StatusServiceUnavailable, "pre-order capture is not configured")
		return
	}

	var req preorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(email) {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	handle := strings.Trim(strings.TrimSpace(req.ProductHandle), "/")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "productHandle is required")
		return
	}

	productURL := "/product/" + strings.TrimPrefix(handle, "product/")

	created, err := h.preorders.SavePreorderInterest(scope.Ctx, email, productURL)
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("failed to save pre-order interest: %v", err)
		writeError(w, http.StatusBadGateway, "failed to save pre-order interest")
		return
	}

	if created {
		metrics.PreorderCapturesTotal.Inc()
	}
	writeJSON(w, http.StatusOK, preorderResponse{Created: created})
}
