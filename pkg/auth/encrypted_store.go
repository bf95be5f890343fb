package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore implements CredentialStore using an AES-GCM encrypted
// file. The key is derived with PBKDF2 from a machine-local passphrase.
type EncryptedFileStore struct {
	filepath   string
	passphrase string
	mu         sync.RWMutex
}

// NewEncryptedFileStore creates a new encrypted file-based credential store
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	store := &EncryptedFileStore{filepath: filePath}

	passphrase, err := store.getPassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	store.passphrase = passphrase

	return store, nil
}

// Store saves a token to the encrypted file
func (e *EncryptedFileStore) Store(token *Token) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if token == nil || token.Label == "" {
		return ErrInvalidToken
	}

	tokens, salt, err := e.loadTokens()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load existing tokens: %w", err)
	}
	if tokens == nil {
		tokens = make(map[string]Token)
	}

	tokens[token.Label] = *token
	return e.saveTokens(tokens, salt)
}

// Retrieve gets a token from the encrypted file
func (e *EncryptedFileStore) Retrieve(label string) (*Token, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if label == "" {
		return nil, ErrInvalidToken
	}

	tokens, _, err := e.loadTokens()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	token, ok := tokens[label]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

// Delete removes a token from the encrypted file
func (e *EncryptedFileStore) Delete(label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if label == "" {
		return ErrInvalidToken
	}

	tokens, salt, err := e.loadTokens()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	if _, ok := tokens[label]; !ok {
		return ErrTokenNotFound
	}

	delete(tokens, label)
	if len(tokens) == 0 {
		return os.Remove(e.filepath)
	}
	return e.saveTokens(tokens, salt)
}

// Exists checks if a token exists
func (e *EncryptedFileStore) Exists(label string) bool {
	token, err := e.Retrieve(label)
	return err == nil && token != nil
}

type encryptedFile struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

// loadTokens reads and decrypts the file, returning tokens and the file salt.
func (e *EncryptedFileStore) loadTokens() (map[string]Token, string, error) {
	content, err := os.ReadFile(e.filepath)
	if err != nil {
		return nil, "", err
	}

	var fileData encryptedFile
	if err := json.Unmarshal(content, &fileData); err != nil {
		return nil, "", fmt.Errorf("failed to parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(fileData.Salt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode salt: %w", err)
	}
	encryptedBytes, err := base64.StdEncoding.DecodeString(fileData.Encrypted)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
	decrypted, err := decrypt(encryptedBytes, key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decrypt data: %w", err)
	}

	var tokens map[string]Token
	if err := json.Unmarshal(decrypted, &tokens); err != nil {
		return nil, "", fmt.Errorf("failed to parse tokens: %w", err)
	}
	return tokens, fileData.Salt, nil
}

// saveTokens encrypts and atomically writes the file.
func (e *EncryptedFileStore) saveTokens(tokens map[string]Token, saltB64 string) error {
	var salt []byte
	if saltB64 == "" {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		saltB64 = base64.StdEncoding.EncodeToString(salt)
	} else {
		var err error
		salt, err = base64.StdEncoding.DecodeString(saltB64)
		if err != nil {
			return fmt.Errorf("failed to decode salt: %w", err)
		}
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)

	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	encrypted, err := encrypt(tokensJSON, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	content, err := json.MarshalIndent(encryptedFile{
		Salt:      saltB64,
		Encrypted: base64.StdEncoding.EncodeToString(encrypted),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tempFile := e.filepath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tempFile, e.filepath)
}

// getPassphrase retrieves or generates the passphrase for encryption
func (e *EncryptedFileStore) getPassphrase() (string, error) {
	if pass := os.Getenv("XFEEDBACK_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	passphraseFile := filepath.Join(configDir, ".passphrase")

	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	passphrase := generatePassphrase()
	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

// generatePassphrase generates a secure random passphrase
func generatePassphrase() string {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}

// encrypt encrypts data using AES-GCM
func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt decrypts data using AES-GCM
func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, data := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, data, nil)
}
