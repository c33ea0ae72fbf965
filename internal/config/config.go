// Package config handles pipeline settings and global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataRootEnv is the environment variable overriding the data root.
const DataRootEnv = "CURATE_DATA_ROOT"

// DefaultDataRoot is used when no override is set.
const DefaultDataRoot = "data"

// CacheDBFile is the records cache filename under the interim dir.
const CacheDBFile = "records.db"

// Settings control the filesystem layout of pipeline artifacts.
type Settings struct {
	DataRoot string
}

// LoadSettings builds settings from the environment.
func LoadSettings() Settings {
	root := os.Getenv(DataRootEnv)
	if root == "" {
		root = DefaultDataRoot
	}
	return Settings{DataRoot: ExpandPath(root)}
}

// RawDir returns the directory for raw search output.
func (s Settings) RawDir() string {
	return filepath.Join(s.DataRoot, "raw")
}

// InterimDir returns the directory for resolved records.
func (s Settings) InterimDir() string {
	return filepath.Join(s.DataRoot, "interim")
}

// ProcessedDir returns the directory for merged records and full text.
func (s Settings) ProcessedDir() string {
	return filepath.Join(s.DataRoot, "processed")
}

// FinalDir returns the directory for final curated artifacts.
func (s Settings) FinalDir() string {
	return filepath.Join(s.DataRoot, "final")
}

// CacheDBPath returns the path of the ephemeral records cache.
func (s Settings) CacheDBPath() string {
	return filepath.Join(s.InterimDir(), CacheDBFile)
}

// EnsureDirectories creates the canonical data directories if they do
// not exist.
func (s Settings) EnsureDirectories() error {
	for _, dir := range []string{s.RawDir(), s.InterimDir(), s.ProcessedDir(), s.FinalDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory. Returns
// the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
