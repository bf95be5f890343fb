package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "xfeedback"
	keyringPrefix  = "token_"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Probe availability; headless systems often have no keyring daemon.
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a token to the system keychain
func (k *KeyringStore) Store(token *Token) error {
	if token == nil || token.Label == "" {
		return ErrInvalidToken
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+token.Label, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Retrieve gets a token from the system keychain
func (k *KeyringStore) Retrieve(label string) (*Token, error) {
	if label == "" {
		return nil, ErrInvalidToken
	}

	data, err := keyring.Get(keyringService, keyringPrefix+label)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var token Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// Delete removes a token from the system keychain
func (k *KeyringStore) Delete(label string) error {
	if label == "" {
		return ErrInvalidToken
	}
	if err := keyring.Delete(keyringService, keyringPrefix+label); err != nil {
		if err == keyring.ErrNotFound {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks if a token exists in the keychain
func (k *KeyringStore) Exists(label string) bool {
	token, err := k.Retrieve(label)
	return err == nil && token != nil
}
