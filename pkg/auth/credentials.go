package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Token holds X API access credentials
type Token struct {
	Label        string    `json:"label"`
	Bearer       string    `json:"bearer"`
	LastModified time.Time `json:"last_modified"`
}

// DefaultLabel is used when no explicit credential label is given.
const DefaultLabel = "default"

// Store errors
var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// CredentialStore is the interface for storing and retrieving API tokens
type CredentialStore interface {
	// Store saves a token
	Store(token *Token) error

	// Retrieve gets the token for a specific label
	Retrieve(label string) (*Token, error)

	// Delete removes the token for a specific label
	Delete(label string) error

	// Exists checks if a token exists for a label
	Exists(label string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available backends in
// preference order: system keyring, encrypted file, environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit backends, used in tests.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves a token using the first store that accepts it
func (m *Manager) Store(token *Token) error {
	if token == nil || token.Bearer == "" {
		return ErrInvalidToken
	}
	if token.Label == "" {
		token.Label = DefaultLabel
	}
	token.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets a token from the first store that has it
func (m *Manager) Retrieve(label string) (*Token, error) {
	if label == "" {
		label = DefaultLabel
	}
	for _, store := range m.stores {
		if token, err := store.Retrieve(label); err == nil {
			return token, nil
		}
	}
	return nil, ErrTokenNotFound
}

// Delete removes a token from every store that has it
func (m *Manager) Delete(label string) error {
	if label == "" {
		label = DefaultLabel
	}
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(label); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrTokenNotFound
	}
	return nil
}

// Exists checks if a token exists in any store
func (m *Manager) Exists(label string) bool {
	if label == "" {
		label = DefaultLabel
	}
	for _, store := range m.stores {
		if store.Exists(label) {
			return true
		}
	}
	return false
}

// getConfigDir returns the configuration directory, creating it if needed
func getConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config dir: %w", err)
	}
	dir := filepath.Join(base, "xfeedback")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	return dir, nil
}
