package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"streamvault/models"
)

// progressTracker is the tracker surface the HTTP layer exposes.
type progressTracker interface {
	Update(rec models.WatchProgressRecord) bool
	Get(id string) (models.WatchProgressRecord, bool)
	Summary() map[string]models.WatchProgressRecord
}

type ProgressHandler struct {
	Tracker progressTracker
}

func NewProgressHandler(tracker progressTracker) *ProgressHandler {
	return &ProgressHandler{Tracker: tracker}
}

// List returns the whole summary map.
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Tracker.Summary())
}

// Get resolves one record by content, stream or episode id.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.Tracker.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "no progress recorded")
		return
	}
	writeJSON(w, rec)
}

// Update applies one playback report. Gated or regressed updates are normal
// outcomes, reported as accepted=false.
func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	var rec models.WatchProgressRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid progress payload")
		return
	}
	if rec.ContentID() == "" {
		writeError(w, http.StatusBadRequest, "streamId or seriesId is required")
		return
	}

	accepted := h.Tracker.Update(rec)
	writeJSON(w, map[string]bool{"accepted": accepted})
}
