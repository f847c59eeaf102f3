package session

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "minijira"

// tokenKey is the fixed key the auth token is stored under.
const tokenKey = "auth-token"

// ErrNoToken is returned by Get when no token is stored.
var ErrNoToken = errors.New("no session token stored")

// Store persists the opaque authentication token in the system keyring.
// It is the single owner of session state; every component that needs
// the token receives a *Store rather than reading storage directly.
type Store struct {
	ring keyring.Keyring
}

// Open returns a session store backed by the default system keyring,
// falling back to an encrypted file under ~/.config/minijira.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/minijira/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("minijira-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// OpenFile returns a session store backed by the file keyring rooted at
// dir. Used by tests and headless environments.
func OpenFile(dir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      serviceName,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt("minijira-file-key"),
	})
	if err != nil {
		return nil, fmt.Errorf("opening file keyring at %s: %w", dir, err)
	}
	return &Store{ring: ring}, nil
}

// Set persists the token, replacing any previous value.
func (s *Store) Set(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:  tokenKey,
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	return nil
}

// Get returns the persisted token, or ErrNoToken when absent.
func (s *Store) Get() (string, error) {
	item, err := s.ring.Get(tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("reading session token: %w", err)
	}
	return string(item.Data), nil
}

// Clear removes the persisted token. Clearing an absent token is not
// an error.
func (s *Store) Clear() error {
	err := s.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clearing session token: %w", err)
	}
	return nil
}
