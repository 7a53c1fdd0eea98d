package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore loads and saves the cached OAuth token.
// Load returns a nil token and nil error when nothing is cached.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// FileStore keeps the token as JSON in a single file
type FileStore struct {
	Path string
}

// NewFileStore creates a token store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load loads a saved OAuth token
func (s *FileStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.Path, err)
	}

	return token, nil
}

// Save overwrites the token file
func (s *FileStore) Save(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	return os.WriteFile(s.Path, data, 0600)
}

// Clear removes the cached token
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore is an in-process TokenStore
type MemoryStore struct {
	mu    sync.Mutex
	token *oauth2.Token
	saves int
}

// NewMemoryStore returns a store holding token (may be nil)
func NewMemoryStore(token *oauth2.Token) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.saves++
	return nil
}

// Saves returns how many times Save was called
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
