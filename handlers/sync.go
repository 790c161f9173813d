package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// syncService is the slice of the catalog service the sync endpoints need.
type syncService interface {
	SyncAll(ctx context.Context) error
	IsSyncing() bool
	Progress() int
	LastSync() time.Time
}

type SyncHandler struct {
	Service syncService
}

func NewSyncHandler(service syncService) *SyncHandler {
	return &SyncHandler{Service: service}
}

// Trigger starts a full catalog sync in the background. A sync already in
// flight makes this a benign no-op, reported as such.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.Service.IsSyncing() {
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{"status": "already-running", "progress": h.Service.Progress()})
		return
	}

	go func() {
		if err := h.Service.SyncAll(context.Background()); err != nil {
			log.Printf("[handlers] background sync failed: %v", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"status": "started"})
}

// Status reports the current sync state.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	var lastSync any
	if t := h.Service.LastSync(); !t.IsZero() {
		lastSync = t.UnixMilli()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"syncing":  h.Service.IsSyncing(),
		"progress": h.Service.Progress(),
		"lastSync": lastSync,
	})
}
