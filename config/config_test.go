package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "settings.json"))

	s := m.Get()
	if s.Server.ListenAddr != ":8480" {
		t.Fatalf("expected default listen addr, got %q", s.Server.ListenAddr)
	}
	if s.Catalog.SyncBatchSize != 1000 {
		t.Fatalf("expected default batch size 1000, got %d", s.Catalog.SyncBatchSize)
	}
	if s.Progress.DebounceMS != 2000 {
		t.Fatalf("expected default debounce 2000ms, got %d", s.Progress.DebounceMS)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s := m.Get()
	s.Catalog.Host = "http://provider.example"
	s.Catalog.Username = "user"
	s.Metadata.APIKey = "key123"
	if err := m.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := NewManager(path).Get()
	if reloaded.Catalog.Host != "http://provider.example" {
		t.Fatalf("expected host to survive reload, got %q", reloaded.Catalog.Host)
	}
	if reloaded.Metadata.APIKey != "key123" {
		t.Fatalf("expected api key to survive reload, got %q", reloaded.Metadata.APIKey)
	}

	// No leftover temp file from the atomic write.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("expected temp file to be gone after Save")
	}
}

func TestSaveBackfillsZeroTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	var s Settings
	s.Catalog.Host = "http://provider.example"
	if err := m.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := m.Get()
	if got.Server.ListenAddr == "" || got.Catalog.SyncBatchSize == 0 || got.Metadata.Language == "" {
		t.Fatalf("expected zero tunables backfilled with defaults, got %+v", got)
	}
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	s := NewManager(path).Get()
	if s.Server.ListenAddr != ":8480" {
		t.Fatalf("expected defaults for corrupt file, got %+v", s)
	}
}
