package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// SettingsStore keeps settings on this machine for use without a session
type SettingsStore interface {
	// Load returns nil when nothing was saved
	Load() (*Settings, error)
	Save(Settings) error
}

type MemorySettingsStore struct {
	mu       sync.Mutex
	settings *Settings
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{}
}

func (m *MemorySettingsStore) Load() (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, nil
	}
	s := *m.settings
	return &s, nil
}

func (m *MemorySettingsStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

// FileSettingsStore keeps settings in a JSON file next to the session file
type FileSettingsStore struct {
	path string
}

func NewFileSettingsStore(path string) *FileSettingsStore {
	return &FileSettingsStore{path: path}
}

// DefaultSettingsPath is <user config dir>/dichoptic/settings.json
func DefaultSettingsPath() (string, error) {
	return configPath("settings.json")
}

func (f *FileSettingsStore) Load() (*Settings, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}
	return &s, nil
}

func (f *FileSettingsStore) Save(s Settings) error {
	if err := writeJSONFile(f.path, s); err != nil {
		return fmt.Errorf("save settings file: %w", err)
	}
	return nil
}
