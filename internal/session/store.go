package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists the opaque bearer credential across runs, the CLI
// analogue of browser local storage. Only the credential is stored; the
// identity is re-resolved on restore so a stale projection can never leak
// into a new session.
type Store struct {
	path string
}

type storedCredential struct {
	Credential string `json:"credential"`
}

// NewStore creates a credential store at the given path. An empty path
// resolves to <user config dir>/facegate/credential.json.
func NewStore(path string) (*Store, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		path = filepath.Join(configDir, "facegate", "credential.json")
	}
	return &Store{path: path}, nil
}

// Path returns the file the credential is stored in.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted credential. A missing file means no credential
// and is not an error.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential file: %w", err)
	}

	var stored storedCredential
	if err := json.Unmarshal(data, &stored); err != nil {
		// An unreadable file is treated like a missing credential;
		// the next Save overwrites it.
		return "", nil
	}
	return stored.Credential, nil
}

// Save writes the credential with owner-only permissions.
func (s *Store) Save(credential string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	data, err := json.Marshal(storedCredential{Credential: credential})
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

// Clear removes the stored credential. Removing an absent file is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
