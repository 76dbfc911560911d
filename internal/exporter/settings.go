package exporter

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	settingsDirPerm  = fs.FileMode(0o700)
	settingsFilePerm = fs.FileMode(0o600)
)

// Settings is the locally persisted exporter state: the exclusion list
// and when it last changed. The timestamp is what the sidecar merge
// compares against.
type Settings struct {
	ExcludedFolders []string `json:"excluded_folders"`
	UpdatedAt       string   `json:"updated_at"` // RFC 3339
}

// SettingsStore persists Settings as JSON with atomic replacement.
// Safe for concurrent use.
type SettingsStore struct {
	path string

	mu      sync.Mutex
	current Settings
	subs    []chan Settings
}

// DefaultSettingsPath returns ~/.granola-sync/settings.json.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	return filepath.Join(dir, ".granola-sync", "settings.json"), nil
}

// LoadSettings opens the store at path. A missing or unreadable file
// yields empty settings; the first save recreates it.
func LoadSettings(path string) *SettingsStore {
	store := &SettingsStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return store
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return store
	}

	store.current = s

	return store
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.current
	out.ExcludedFolders = append([]string(nil), s.current.ExcludedFolders...)

	return out
}

// UpdatedTime returns when the exclusion list last changed, or the zero
// time when unknown.
func (s *SettingsStore) UpdatedTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := time.Parse(time.RFC3339, s.current.UpdatedAt)
	if err != nil {
		return time.Time{}
	}

	return t
}

// SetExcluded replaces the exclusion list, stamps it with the given
// time, and persists. A no-op when the list is unchanged.
func (s *SettingsStore) SetExcluded(folders []string, updated time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if equalFolders(s.current.ExcludedFolders, folders) {
		return nil
	}

	s.current.ExcludedFolders = append([]string(nil), folders...)
	s.current.UpdatedAt = updated.UTC().Format(time.RFC3339)

	if err := s.persistLocked(); err != nil {
		return err
	}

	s.publishLocked()

	return nil
}

// Subscribe registers a channel that receives a settings snapshot after
// every change. The channel holds only the latest snapshot: a slow
// receiver misses intermediate states but never blocks a sync pass.
func (s *SettingsStore) Subscribe() <-chan Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Settings, 1)
	s.subs = append(s.subs, ch)

	return ch
}

// publishLocked replaces any pending snapshot on each subscriber
// channel with the current one. Caller holds the mutex.
func (s *SettingsStore) publishLocked() {
	snapshot := s.current
	snapshot.ExcludedFolders = append([]string(nil), s.current.ExcludedFolders...)

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}

		select {
		case ch <- snapshot:
		default:
		}
	}
}

// persistLocked writes the settings through a temp file plus rename so
// a crash never leaves a partial file. Caller holds the mutex.
func (s *SettingsStore) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), settingsDirPerm); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("writing settings: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing settings: %w", err)
	}

	if err := os.Chmod(tmpName, settingsFilePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting settings permissions: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing settings: %w", err)
	}

	return nil
}

func equalFolders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
