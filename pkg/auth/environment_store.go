package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using the X_BEARER_TOKEN
// environment variable. Read-only; kept for parity with direct .env usage.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(token *Token) error {
	return ErrStoreUnavailable
}

// Retrieve gets the bearer token from the environment
func (e *EnvironmentStore) Retrieve(label string) (*Token, error) {
	bearer := os.Getenv("X_BEARER_TOKEN")
	if bearer == "" {
		return nil, ErrTokenNotFound
	}
	if label == "" {
		label = DefaultLabel
	}
	return &Token{
		Label:        label,
		Bearer:       bearer,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token is set
func (e *EnvironmentStore) Exists(label string) bool {
	return os.Getenv("X_BEARER_TOKEN") != ""
}
