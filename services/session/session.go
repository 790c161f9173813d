// Package session owns the current provider session. Logging out is the only
// path that wipes the local mirror, and it flushes pending progress first.
package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Credentials identify one provider account.
type Credentials struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is one logged-in account.
type Session struct {
	ID          string      `json:"id"`
	Credentials Credentials `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// flusher forces pending progress writes before teardown.
type flusher interface {
	Flush() error
}

// wiper clears the local catalog mirror.
type wiper interface {
	ClearAll() error
}

// Manager holds the single active session.
type Manager struct {
	mu      sync.Mutex
	current *Session
	tracker flusher
	store   wiper
}

// NewManager creates a session manager over the tracker and store that must
// be torn down on logout.
func NewManager(tracker flusher, store wiper) *Manager {
	return &Manager{tracker: tracker, store: store}
}

// Login starts a session for the given credentials, replacing any current one.
func (m *Manager) Login(creds Credentials) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &Session{
		ID:          uuid.NewString(),
		Credentials: creds,
		CreatedAt:   time.Now(),
	}
	log.Printf("[session] session %s started for %s", m.current.ID, creds.Username)
	return m.current
}

// Current returns the active session, nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Logout flushes pending progress, wipes the local mirror and drops the
// session. A flush failure is logged but does not keep the data around.
func (m *Manager) Logout() error {
	m.mu.Lock()
	current := m.current
	m.current = nil
	m.mu.Unlock()

	if current == nil {
		return nil
	}

	if m.tracker != nil {
		if err := m.tracker.Flush(); err != nil {
			log.Printf("[session] progress flush on logout failed: %v", err)
		}
	}
	if err := m.store.ClearAll(); err != nil {
		return err
	}
	log.Printf("[session] session %s ended, local data cleared", current.ID)
	return nil
}
