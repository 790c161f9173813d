package session

import (
	"errors"
	"testing"
)

type stubFlusher struct {
	flushes int
	err     error
}

func (f *stubFlusher) Flush() error {
	f.flushes++
	return f.err
}

type stubWiper struct {
	clears int
	err    error
}

func (w *stubWiper) ClearAll() error {
	w.clears++
	return w.err
}

func TestLoginCreatesSession(t *testing.T) {
	m := NewManager(&stubFlusher{}, &stubWiper{})

	s := m.Login(Credentials{Host: "http://provider", Username: "user"})
	if s.ID == "" {
		t.Fatal("expected session id")
	}
	if m.Current() == nil || m.Current().ID != s.ID {
		t.Fatal("expected Current to return the new session")
	}

	replaced := m.Login(Credentials{Host: "http://other", Username: "other"})
	if replaced.ID == s.ID {
		t.Fatal("expected a fresh id for the replacing session")
	}
}

func TestLogoutFlushesAndClears(t *testing.T) {
	flusher := &stubFlusher{}
	wiper := &stubWiper{}
	m := NewManager(flusher, wiper)

	m.Login(Credentials{Username: "user"})
	if err := m.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if flusher.flushes != 1 {
		t.Fatalf("expected 1 flush, got %d", flusher.flushes)
	}
	if wiper.clears != 1 {
		t.Fatalf("expected 1 clear, got %d", wiper.clears)
	}
	if m.Current() != nil {
		t.Fatal("expected no current session after logout")
	}
}

func TestLogoutWithoutSessionIsNoOp(t *testing.T) {
	wiper := &stubWiper{}
	m := NewManager(&stubFlusher{}, wiper)

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if wiper.clears != 0 {
		t.Fatalf("expected no clear without a session, got %d", wiper.clears)
	}
}

func TestLogoutClearsDespiteFlushFailure(t *testing.T) {
	flusher := &stubFlusher{err: errors.New("sink unreachable")}
	wiper := &stubWiper{}
	m := NewManager(flusher, wiper)

	m.Login(Credentials{Username: "user"})
	if err := m.Logout(); err != nil {
		t.Fatalf("expected flush failure to be non-fatal, got %v", err)
	}
	if wiper.clears != 1 {
		t.Fatalf("expected clear to still run, got %d", wiper.clears)
	}
}
