package client

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"taskman/models"
)

// TokenStore is the client-local home of the current token pair.
type TokenStore interface {
	Load() (models.TokenPair, error)
	Save(models.TokenPair) error
}

// MemoryStore keeps the pair in memory; it is gone when the process
// exits.
type MemoryStore struct {
	mu   sync.Mutex
	pair models.TokenPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (models.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair, nil
}

func (s *MemoryStore) Save(pair models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

// FileStore persists the pair as JSON, the CLI equivalent of the web
// frontend's localStorage. A missing file reads as an empty pair.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (models.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.TokenPair{}, nil
		}
		return models.TokenPair{}, fmt.Errorf("read token file: %w", err)
	}

	var pair models.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("parse token file: %w", err)
	}
	return pair, nil
}

func (s *FileStore) Save(pair models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	// 0600: the refresh token is a credential.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
