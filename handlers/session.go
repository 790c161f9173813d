package handlers

import (
	"net/http"

	"streamvault/services/session"
)

// sessionManager owns the active provider session.
type sessionManager interface {
	Current() *session.Session
	Logout() error
}

type SessionHandler struct {
	Manager sessionManager
}

func NewSessionHandler(manager sessionManager) *SessionHandler {
	return &SessionHandler{Manager: manager}
}

// Current reports the active session, 404 when logged out.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	s := h.Manager.Current()
	if s == nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, s)
}

// Logout flushes pending progress and wipes the local mirror.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Logout(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}
