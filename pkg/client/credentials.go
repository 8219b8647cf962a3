package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CredentialStore persists the opaque session credential across restarts so a
// reconnecting client is recognized as the same identity. An empty load means
// "anonymous": the server will issue a fresh identity.
type CredentialStore interface {
	Load() (string, error)
	Store(token string) error
}

// FileCredentialStore keeps the credential in a local file.
type FileCredentialStore struct {
	Path string
}

func (f FileCredentialStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f FileCredentialStore) Store(token string) error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create credential directory: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// MemoryCredentialStore holds the credential in memory; useful in tests and
// for callers that manage persistence themselves.
type MemoryCredentialStore struct {
	Token string
}

func (m *MemoryCredentialStore) Load() (string, error) {
	return m.Token, nil
}

func (m *MemoryCredentialStore) Store(token string) error {
	m.Token = token
	return nil
}
