package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the persisted application configuration.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Catalog  CatalogSettings  `json:"catalog"`
	Metadata MetadataSettings `json:"metadata"`
	Progress ProgressSettings `json:"progress"`
	Logging  LoggingSettings  `json:"logging"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	ListenAddr string `json:"listenAddr"`
	DataDir    string `json:"dataDir"`
}

// CatalogSettings holds the remote catalog (Xtream) account and sync tuning.
type CatalogSettings struct {
	Host          string `json:"host"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	SyncBatchSize int    `json:"syncBatchSize"`
	SyncMaxAgeH   int    `json:"syncMaxAgeHours"`
}

// MetadataSettings holds the external metadata provider configuration.
type MetadataSettings struct {
	APIKey    string `json:"apiKey"`
	Language  string `json:"language"`
	CacheTTLH int    `json:"cacheTtlHours"`
}

// ProgressSettings tunes watch progress persistence.
type ProgressSettings struct {
	RemoteURL  string `json:"remoteUrl,omitempty"`
	DebounceMS int    `json:"debounceMs"`
}

// LoggingSettings configures rotated file logging.
type LoggingSettings struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
}

// DefaultSettings returns the settings used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			ListenAddr: ":8480",
			DataDir:    "./data",
		},
		Catalog: CatalogSettings{
			SyncBatchSize: 1000,
			SyncMaxAgeH:   24,
		},
		Metadata: MetadataSettings{
			Language:  "en-US",
			CacheTTLH: 24,
		},
		Progress: ProgressSettings{
			DebounceMS: 2000,
		},
		Logging: LoggingSettings{
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Manager loads and saves settings.json with atomic writes.
type Manager struct {
	path string

	mu       sync.RWMutex
	settings Settings
}

// NewManager creates a manager for the given settings path. The file is read
// if present; otherwise defaults are used until the first Save.
func NewManager(path string) *Manager {
	m := &Manager{path: path, settings: DefaultSettings()}
	if data, err := os.ReadFile(path); err == nil {
		var s Settings
		if err := json.Unmarshal(data, &s); err == nil {
			m.settings = withDefaults(s)
		}
	}
	return m
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Save persists the settings and makes them current.
func (m *Manager) Save(s Settings) error {
	s = withDefaults(s)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}

	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	return nil
}

// withDefaults fills zero-valued tunables so older settings files keep working
// after new fields are added.
func withDefaults(s Settings) Settings {
	def := DefaultSettings()
	if s.Server.ListenAddr == "" {
		s.Server.ListenAddr = def.Server.ListenAddr
	}
	if s.Server.DataDir == "" {
		s.Server.DataDir = def.Server.DataDir
	}
	if s.Catalog.SyncBatchSize <= 0 {
		s.Catalog.SyncBatchSize = def.Catalog.SyncBatchSize
	}
	if s.Catalog.SyncMaxAgeH <= 0 {
		s.Catalog.SyncMaxAgeH = def.Catalog.SyncMaxAgeH
	}
	if s.Metadata.Language == "" {
		s.Metadata.Language = def.Metadata.Language
	}
	if s.Metadata.CacheTTLH <= 0 {
		s.Metadata.CacheTTLH = def.Metadata.CacheTTLH
	}
	if s.Progress.DebounceMS <= 0 {
		s.Progress.DebounceMS = def.Progress.DebounceMS
	}
	if s.Logging.MaxSizeMB <= 0 {
		s.Logging.MaxSizeMB = def.Logging.MaxSizeMB
	}
	if s.Logging.MaxBackups <= 0 {
		s.Logging.MaxBackups = def.Logging.MaxBackups
	}
	return s
}
