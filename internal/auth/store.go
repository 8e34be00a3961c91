// Package auth stores answer-backend API keys on disk so they need not
// live in the environment.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// APIKeyCredentials stores an API key for a provider.
type APIKeyCredentials struct {
	APIKey string `json:"api_key,omitempty"`
}

// Credentials holds stored credentials keyed by provider name.
type Credentials struct {
	Providers map[string]*APIKeyCredentials `json:"providers,omitempty"`
}

// Store reads and writes a credentials file.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the store at ~/.intent-agent/credentials.json.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return NewStore(filepath.Join(home, ".intent-agent", "credentials.json")), nil
}

// Path returns the credentials file path.
func (s *Store) Path() string { return s.path }

// Load reads the credentials file. Returns empty credentials if the file doesn't exist.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// Save writes credentials with restricted permissions.
func (s *Store) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// SetAPIKey stores key for provider, replacing any previous key.
func (s *Store) SetAPIKey(provider, key string) error {
	creds, err := s.Load()
	if err != nil {
		return err
	}
	if creds.Providers == nil {
		creds.Providers = make(map[string]*APIKeyCredentials)
	}
	entry := creds.Providers[provider]
	if entry == nil {
		entry = &APIKeyCredentials{}
		creds.Providers[provider] = entry
	}
	entry.APIKey = key
	return s.Save(creds)
}

// Remove deletes the stored key for provider, or every key when provider is empty.
func (s *Store) Remove(provider string) error {
	creds, err := s.Load()
	if err != nil {
		return err
	}
	if provider == "" {
		creds.Providers = nil
	} else {
		delete(creds.Providers, provider)
	}
	return s.Save(creds)
}

// Configured lists the providers that have a stored key, sorted.
func (s *Store) Configured() ([]string, error) {
	creds, err := s.Load()
	if err != nil {
		return nil, err
	}
	var names []string
	for name, c := range creds.Providers {
		if c != nil && c.APIKey != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// GetAPIKey returns the API key for the given provider.
// It checks envVar first, then falls back to stored credentials.
func (s *Store) GetAPIKey(provider, envVar string) string {
	// Priority 1: Environment variable.
	if envVar != "" {
		if key := os.Getenv(envVar); key != "" {
			return key
		}
	}

	// Priority 2: Stored credentials.
	creds, err := s.Load()
	if err != nil {
		return ""
	}
	if c := creds.Providers[provider]; c != nil {
		return c.APIKey
	}
	return ""
}
