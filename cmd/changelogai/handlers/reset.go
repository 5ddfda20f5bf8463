package handlers

import (
	"net/http"

	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/store"
)

// ResetHandler clears the store. Only mounted when dev.enable_reset is set.
type ResetHandler struct {
	store store.Store
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(s store.Store) *ResetHandler {
	return &ResetHandler{store: s}
}

// Reset handles POST /api/reset
func (h *ResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	logging.Warn("data store reset", map[string]interface{}{"remote_addr": r.RemoteAddr})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Data store has been reset to empty state",
	})
}
