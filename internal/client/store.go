package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Tokens is the persisted part of a session
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenStore persists tokens between runs
type TokenStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryTokenStore) Save(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save(Tokens{})
}

// FileTokenStore keeps tokens in a JSON file readable only by the owner
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenPath is <user config dir>/dichoptic/session.json
func DefaultTokenPath() (string, error) {
	return configPath("session.json")
}

// Load returns empty tokens when the file does not exist
func (f *FileTokenStore) Load() (Tokens, error) {
	var t Tokens

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("read session file: %w", err)
	}

	if err := json.Unmarshal(raw, &t); err != nil {
		return Tokens{}, fmt.Errorf("decode session file: %w", err)
	}
	return t, nil
}

func (f *FileTokenStore) Save(t Tokens) error {
	if err := writeJSONFile(f.path, t); err != nil {
		return fmt.Errorf("save session file: %w", err)
	}
	return nil
}

func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// writeJSONFile writes v to path readable only by the owner, creating the directory
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	// write then rename so a crash never leaves a truncated file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}

// configPath is <user config dir>/dichoptic/<name>
func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "dichoptic", name), nil
}
