// Package settings owns the single, process-wide generative API key.
//
// The key lives in a key-value Store under a fixed name. Two stores exist:
// an in-memory map for local development, and Postgres (internal/database)
// when DATABASE_URL is set, so the key survives restarts.
package settings

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// APIKeyName is the fixed key the API key is stored under.
const APIKeyName = "docgenie_api_key"

// ErrNotFound is returned by a Store when the name has no value.
var ErrNotFound = errors.New("setting not found")

// ErrEmptyKey is returned when saving a blank API key.
var ErrEmptyKey = errors.New("API key is empty")

// Store is a string key-value store.
// Go Pattern: Accept interfaces. The service does not care whether the
// value lives in memory or in Postgres.
type Store interface {
	GetSetting(ctx context.Context, name string) (string, error)
	PutSetting(ctx context.Context, name, value string) error
	DeleteSetting(ctx context.Context, name string) error
}

// Service reads and writes the API key.
type Service struct {
	store Store
}

// NewService wraps a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// APIKey returns the stored key, or "" when none is configured.
func (s *Service) APIKey(ctx context.Context) (string, error) {
	key, err := s.store.GetSetting(ctx, APIKeyName)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return key, err
}

// SaveAPIKey trims and stores key, replacing any previous one.
func (s *Service) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	return s.store.PutSetting(ctx, APIKeyName, key)
}

// ClearAPIKey removes the key. Clearing an absent key is not an error.
func (s *Service) ClearAPIKey(ctx context.Context) error {
	err := s.store.DeleteSetting(ctx, APIKeyName)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Status reports whether a key is configured, with a masked preview.
func (s *Service) Status(ctx context.Context) (configured bool, preview string, err error) {
	key, err := s.APIKey(ctx)
	if err != nil {
		return false, "", err
	}
	if key == "" {
		return false, "", nil
	}
	return true, Mask(key), nil
}

// Mask hides all but the first and last four characters of a key.
// Short keys are hidden completely.
func Mask(key string) string {
	runes := []rune(key)
	if len(runes) <= 8 {
		return strings.Repeat("•", len(runes))
	}
	return string(runes[:4]) + strings.Repeat("•", len(runes)-8) + string(runes[len(runes)-4:])
}

// MemoryStore is a Store backed by a map. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// GetSetting returns the value for name.
func (m *MemoryStore) GetSetting(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// PutSetting sets the value for name.
func (m *MemoryStore) PutSetting(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

// DeleteSetting removes name.
func (m *MemoryStore) DeleteSetting(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}
