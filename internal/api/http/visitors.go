package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/repository/visitors"
)

// handleLogVisitor appends the posted JSON object to the visitor log.
func (h *handler) handleLogVisitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var entry visitors.Entry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid visitor information", err)
		return
	}

	if entry == nil {
		entry = visitors.Entry{}
	}

	if _, err := h.opts.Visitors.Append(ctx, entry); err != nil {
		logger.ErrorKV(ctx, "Failed to log visitor", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to log visitor information", nil)

		return
	}

	h.opts.Metrics.ObserveVisitor()

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleListVisitors returns every logged visit.
func (h *handler) handleListVisitors(w http.ResponseWriter, r *http.Request) {
	logs, err := h.opts.Visitors.List(r.Context())
	if err != nil {
		logger.ErrorKV(r.Context(), "Failed to read visitor log", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve visitor logs", nil)

		return
	}

	if logs == nil {
		logs = []visitors.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleOnline returns the presence count.
func (h *handler) handleOnline(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.opts.Presence.Count()})
}
