package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/juneof/promo-engine/pkg/common"
	"github.com/juneof/promo-engine/pkg/route"
)

type navigateRequest struct {
	Path string `json:"path"`
}

type productContextRequest struct {
	Handle           string `json:"handle"`
	AvailableForSale *bool  `json:"availableForSale"`
}

// navigate reports a client-side route change and runs one full modal
// evaluation cycle for the new path.
func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.Navigate")
	defer scope.Finish()

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	scope.AddBaggage("sessionId", sessionID)
	scope.AddBaggage("path", req.Path)

	sess := h.manager.Session(sessionID, r.Header.Get(visitorHeader))
	snap := sess.Navigate(scope.Ctx, req.Path)

	scope.Log.Debugf("navigate session=%s path=%s state=%s", sessionID, req.Path, snap.State)
	writeJSON(w, http.StatusOK, snap)
}

// productContext accepts a product availability announcement for the
// session's current route. Announcements for a route the session has
// already left are dropped.
func (h *Handler) productContext(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.ProductContext")
	defer scope.Finish()

	sessionID := chi.URLParam(r, "sessionID")

	var req productContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	sess, ok := h.manager.Lookup(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	pc := route.ProductContext{Handle: req.Handle, AvailableForSale: req.AvailableForSale}
	accepted := sess.HandleProductContext(scope.Ctx, pc)
	if !accepted {
		scope.Log.Debugf("stale product context dropped: session=%s handle=%s", sessionID, req.Handle)
	}

	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// modal returns the current decision snapshot.
func (h *Handler) modal(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.manager.Lookup(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// closeModal records a user dismissal. Closing is idempotent; only an open
// modal transitions, and only that transition persists suppression markers.
func (h *Handler) closeModal(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.CloseModal")
	defer scope.Finish()

	sess, ok := h.manager.Lookup(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	sess.Close(scope.Ctx)
	w.WriteHeader(http.StatusNoContent)
}
