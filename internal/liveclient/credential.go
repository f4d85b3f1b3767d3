package liveclient

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/99designs/keyring"
)

const (
	KeyringService = "levelup"
	keyringKey     = "access_token"
)

// CredentialSource yields the bearer token of the session. An empty token keeps the
// subsystem inert.
type CredentialSource interface {
	Token() string
}

// StaticToken is a fixed token, typically from a flag or the environment.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Credentials returns the first non-empty token of its sources.
type Credentials []CredentialSource

func (cs Credentials) Token() string {
	for _, c := range cs {
		if c == nil {
			continue
		}
		if tok := c.Token(); tok != "" {
			return tok
		}
	}
	return ""
}

// Keyring keeps the access token in the OS keychain.
type Keyring struct {
	ring keyring.Keyring
}

// OpenKeyring opens the platform keyring. fileDir backs the encrypted file fallback.
func OpenKeyring(fileDir string) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: KeyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(KeyringService + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}

	return NewKeyring(ring), nil
}

func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

// Token returns the stored token or "" when none is stored or the keyring fails.
func (k *Keyring) Token() string {
	item, err := k.ring.Get(keyringKey)
	if err != nil {
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			slog.Warn("failed to read access token from keyring", "error", err)
		}
		return ""
	}

	return string(item.Data)
}

func (k *Keyring) Store(token string) error {
	if err := k.ring.Set(keyring.Item{Key: keyringKey, Data: []byte(token), Label: "LevelUp access token"}); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	return nil
}

// Remove deletes the stored token. Removing a missing token is not an error.
func (k *Keyring) Remove() error {
	if err := k.ring.Remove(keyringKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing access token: %w", err)
	}
	return nil
}
