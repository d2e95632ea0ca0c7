// Package settings stores provider API keys for addontrans.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/addontrans/auth.json  (default: ~/.local/share/addontrans/)
//
// The file is a JSON object keyed by provider ID. Permissions are 0600.
//
// Lookup order for API keys at runtime:
//  1. --api-key flag
//  2. provider environment variable (OPENAI_API_KEY, GROQ_API_KEY, ...)
//  3. this store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "addontrans"
	fileName    = "auth.json"
)

// Credential is a stored API key, optionally with a custom endpoint URL.
type Credential struct {
	Key     string `json:"key"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Credential

func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// FilePath returns the auth.json path for display purposes.
func FilePath() string {
	dir, err := dataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, fileName)
}

// Load reads the credential store from disk. Returns an empty store if
// the file does not exist or is invalid.
func Load() Store {
	path := FilePath()
	if path == "" {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path := FilePath()
	if path == "" {
		return fmt.Errorf("cannot determine data directory")
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// GetAPIKey returns the stored API key for a provider, or "".
func GetAPIKey(providerID string) string {
	if cred := Load()[providerID]; cred != nil {
		return cred.Key
	}
	return ""
}

// GetBaseURL returns the stored endpoint override for a provider, or "".
func GetBaseURL(providerID string) string {
	if cred := Load()[providerID]; cred != nil {
		return cred.BaseURL
	}
	return ""
}

// SetAPIKey stores an API key for a provider (upsert).
func SetAPIKey(providerID, key, baseURL string) error {
	store := Load()
	store[providerID] = &Credential{Key: key, BaseURL: baseURL}
	return Save(store)
}

// Remove deletes credentials for a provider.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
