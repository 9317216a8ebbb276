package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File holds CLI settings persisted to disk by rr login.
type File struct {
	ServerURL string `yaml:"server_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
}

// FilePath returns the path to the CLI config file.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rr", "config.yaml"), nil
}

// LoadFile reads the CLI config from disk.
// Returns a zero-value File if it doesn't exist.
func LoadFile() (File, error) {
	path, err := FilePath()
	if err != nil {
		return File{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return File{}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("reading config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return f, nil
}

// SaveFile writes the CLI config to disk with owner-only permissions.
func SaveFile(f File) error {
	path, err := FilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
