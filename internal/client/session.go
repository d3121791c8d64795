package client

import (
	"fmt"
	"sync"
)

// Session holds the current tokens and mirrors every change to its TokenStore.
// Its lifecycle is explicit: Hydrate on startup, Start on login, Clear on logout.
type Session struct {
	mu     sync.RWMutex
	store  TokenStore
	tokens Tokens
}

func NewSession(store TokenStore) *Session {
	return &Session{store: store}
}

// Hydrate loads previously persisted tokens
func (s *Session) Hydrate() error {
	t, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}

	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return nil
}

func (s *Session) Start(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(t); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.tokens = t
	return nil
}

// SetAccessToken replaces the access token and keeps the refresh token
func (s *Session) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Tokens{AccessToken: token, RefreshToken: s.tokens.RefreshToken}
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.tokens = next
	return nil
}

// Clear drops the tokens from memory even if the store fails
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{}
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

func (s *Session) Active() bool {
	return s.AccessToken() != ""
}
